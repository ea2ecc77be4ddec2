package itemid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDv7Generator_Sortable(t *testing.T) {
	g := UUIDv7Generator{}

	a := g.Generate()
	b := g.Generate()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, a[:13], b[:13], "timestamp prefix must not decrease")
}

func TestFixedGenerator_Order(t *testing.T) {
	g := NewFixedGenerator("k1", "k2")

	assert.Equal(t, "k1", g.Generate())
	assert.Equal(t, "k2", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestFixedGenerator_Concurrent(t *testing.T) {
	keys := make([]string, 100)
	for i := range keys {
		keys[i] = string(rune('a' + i%26))
	}
	g := NewFixedGenerator(keys...)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Generate()
		}()
	}
	wg.Wait()

	assert.Panics(t, func() { g.Generate() })
}
