package words

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadEmbedded(t *testing.T) {
	l, err := Load(Config{})
	require.NoError(t, err)

	assert.True(t, l.IsAnswer("crane"))
	assert.True(t, l.IsLegal("CRANE"), "lookups ignore case")
	assert.True(t, l.IsLegal("slate"), "allowed-only word")
	assert.False(t, l.IsAnswer("slate"))
	assert.False(t, l.IsLegal("zzzzz"))

	a, g := l.Stats()
	assert.Positive(t, a)
	assert.Greater(t, g, a)
}

func TestLoadFiles(t *testing.T) {
	answers := writeFile(t, "answers.txt", "crane\nAllow\nbad\n# note\n")
	allowed := writeFile(t, "allowed.txt", "slate\ntoolong\nab1de\n")

	tests := []struct {
		name        string
		cfg         Config
		wantAnswers []string
		legal       []string
		illegal     []string
		wantErr     bool
	}{
		{
			name:        "both files",
			cfg:         Config{AnswersFile: answers, AllowedFile: allowed},
			wantAnswers: []string{"crane", "allow"},
			legal:       []string{"crane", "allow", "slate"},
			illegal:     []string{"bad", "toolong", "ab1de"},
		},
		{
			name:        "allowed only doubles as answers",
			cfg:         Config{AllowedFile: allowed},
			wantAnswers: []string{"slate"},
			legal:       []string{"slate"},
			illegal:     []string{"crane"},
		},
		{
			name:    "answers only is rejected",
			cfg:     Config{AnswersFile: answers},
			wantErr: true,
		},
		{
			name:    "missing file",
			cfg:     Config{AnswersFile: "/nonexistent/a.txt", AllowedFile: allowed},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Load(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAnswers, l.Answers())
			for _, w := range tt.legal {
				assert.True(t, l.IsLegal(w), w)
			}
			for _, w := range tt.illegal {
				assert.False(t, l.IsLegal(w), w)
			}
		})
	}
}

func TestFromWordsEmpty(t *testing.T) {
	_, err := FromWords([]string{"abc", "12345"}, []string{"crane"})
	assert.ErrorIs(t, err, ErrNoAnswers)
}

func TestRandomWordIsAnswer(t *testing.T) {
	l, err := FromWords([]string{"crane", "allow", "llama"}, nil)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		assert.True(t, l.IsAnswer(l.RandomWord()))
	}
}
