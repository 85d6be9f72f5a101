package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_setHeaderOverwritesPreservingFirstCasing(t *testing.T) {
	r := NewResponse()
	r.SetHeader("Content-Type", "text/plain")
	r.SetHeader("content-type", "application/json")

	v, ok := r.Header("Content-Type")
	require.True(t, ok)
	assert.Equal(t, "application/json", v)
	assert.Len(t, r.Headers(), 1)
	assert.Equal(t, "Content-Type", r.Headers()[0].Name)
}

func TestResponse_resetClearsButKeepsHeaderCapacity(t *testing.T) {
	r := NewResponse()
	r.Status = 404
	r.SetHeader("X-Foo", "bar")
	r.BodyKind = BodyBytes
	r.Bytes = []byte("hi")

	r.Reset()

	assert.Equal(t, 200, r.Status)
	assert.False(t, r.HasHeader("X-Foo"))
	assert.Equal(t, BodyEmpty, r.BodyKind)
	assert.Nil(t, r.Bytes)
}

func TestResponseBuilder_chainedCalls(t *testing.T) {
	r := NewResponse()
	b := NewResponseBuilder(r)

	b.Status(201).Header("X-Request-Id", "abc").JSON([]byte(`{"ok":true}`))

	assert.Equal(t, 201, b.StatusCode())
	ct, ok := r.Header("Content-Type")
	require.True(t, ok)
	assert.Equal(t, "application/json", ct)
	assert.Equal(t, []byte(`{"ok":true}`), r.Bytes)
}

func TestResponseBuilder_fileSetsBodyKindFile(t *testing.T) {
	r := NewResponse()
	b := NewResponseBuilder(r)

	b.File("/tmp/report.pdf", "application/pdf")

	assert.Equal(t, BodyFile, r.BodyKind)
	assert.Equal(t, "/tmp/report.pdf", r.FilePath)
	assert.Equal(t, "application/pdf", r.ContentType)
}
