package progressbar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, 4, 2)
	assert.Equal(t, "|    | [0.00%]", p.String())

	p.Increment()
	assert.Equal(t, "|██  | [50.00%]", p.String())

	p.Increment()
	p.Increment()
	assert.Equal(t, 100.0, p.Percent())
	assert.Equal(t, "|████| [100.00%]", p.String())

	p.Display()
	assert.Contains(t, out.String(), "[100.00%] elapsed:")
}
