package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type key struct {
	owner   int
	options string
}

func TestMapCache(t *testing.T) {
	var c Cache[key, string] = NewMapCache[key, string]()

	_, ok := c.Get(key{1, "-D ARRAY_TYPE=int"})
	assert.False(t, ok)

	c.Put(key{1, "-D ARRAY_TYPE=int"}, "int-program")
	c.Put(key{1, "-D ARRAY_TYPE=float"}, "float-program")
	assert.Equal(t, 2, c.Size())

	v, ok := c.Get(key{1, "-D ARRAY_TYPE=int"})
	require.True(t, ok)
	assert.Equal(t, "int-program", v)

	removed := c.DeleteFunc(func(k key, _ string) bool { return k.options == "-D ARRAY_TYPE=float" })
	assert.Equal(t, []string{"float-program"}, removed)
	assert.Empty(t, c.DeleteFunc(func(k key, _ string) bool { return k.options == "-D ARRAY_TYPE=float" }))
	assert.Equal(t, 1, c.Size())
}

func TestMapCache_DeleteFunc(t *testing.T) {
	c := NewMapCache[key, int]()
	for i := range 6 {
		c.Put(key{i % 2, fmt.Sprint(i)}, i)
	}

	removed := c.DeleteFunc(func(k key, _ int) bool { return k.owner == 1 })
	assert.ElementsMatch(t, []int{1, 3, 5}, removed)
	assert.Equal(t, 3, c.Size())
}

func TestMapCache_Concurrent(t *testing.T) {
	c := NewMapCache[int, int]()
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Put(i, i*i)
			v, ok := c.Get(i)
			assert.True(t, ok)
			assert.Equal(t, i*i, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, 32, c.Size())
}
