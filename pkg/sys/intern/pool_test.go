package intern

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestPoolReturnsCanonicalInstance(t *testing.T) {
	p := NewPool()

	a := p.String(strings.Repeat("02ab", 16))
	b := p.String(strings.Repeat("02ab", 16))

	assert.Equal(t, a, b)
	assert.Equal(t, unsafe.StringData(a), unsafe.StringData(b), "expected shared backing array")
	assert.Equal(t, 1, p.Len())
}

func TestPoolEmptyString(t *testing.T) {
	p := NewPool()
	assert.Equal(t, "", p.String(""))
	assert.Equal(t, 0, p.Len())
}
