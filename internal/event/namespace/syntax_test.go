package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntax_Split(t *testing.T) {
	s := NewSyntax("/")

	tests := []struct {
		path    string
		want    []string
		wantErr error
	}{
		{"hello", []string{"hello"}, nil},
		{"hello/world", []string{"hello", "world"}, nil},
		{"hello/*/world", []string{"hello", "*", "world"}, nil},
		{"", nil, ErrEmptyPath},
		{"/hello", nil, ErrEmptySegment},
		{"hello/", nil, ErrEmptySegment},
		{"hello//world", nil, ErrEmptySegment},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := s.Split(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyntax_CustomSeparator(t *testing.T) {
	s := NewSyntax(".")

	segs, err := s.Split("buffer.content.inserted")
	require.NoError(t, err)
	assert.Equal(t, []string{"buffer", "content", "inserted"}, segs)
	assert.Equal(t, "buffer.content.inserted", s.Join(segs))

	// Slashes are ordinary characters under a dot separator.
	segs, err = s.Split("fs/a.b")
	require.NoError(t, err)
	assert.Equal(t, []string{"fs/a", "b"}, segs)
}

func TestNewSyntax_Fallback(t *testing.T) {
	assert.Equal(t, DefaultSeparator, NewSyntax("").Separator)
	assert.Equal(t, DefaultSeparator, NewSyntax(Wildcard).Separator)
	assert.Equal(t, "::", NewSyntax("::").Separator)

	var zero Syntax
	assert.Equal(t, "a/b", zero.Join([]string{"a", "b"}))
}

func TestSyntax_Valid(t *testing.T) {
	s := NewSyntax("/")

	assert.True(t, s.Valid("a/b"))
	assert.False(t, s.Valid("a//b"))
}
