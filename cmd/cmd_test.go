package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorbot/internal/level"
	"github.com/abhisek/tutorbot/internal/questionbank"
	"github.com/abhisek/tutorbot/internal/store"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(append(args, "--env-file", ""))
	return rootCmd.ExecuteContext(context.Background())
}

func TestSeedAndManageQuestions(t *testing.T) {
	db := filepath.Join(t.TempDir(), "nested", "tutorbot.db")

	require.NoError(t, execute(t, "seed", "--db", db))
	require.NoError(t, execute(t, "seed", "--db", db))
	require.NoError(t, execute(t, "questions", "add", "--db", db, "advanced", "What", "is", "a", "metaclass", "conflict?"))
	assert.Error(t, execute(t, "questions", "add", "--db", db, "expert", "Nope"))

	s, err := store.Open(db)
	require.NoError(t, err)
	qs, err := s.QuestionRepo().List(context.Background())
	require.NoError(t, err)
	require.Len(t, qs, len(questionbank.Seeds())+1)

	added := qs[len(qs)-1]
	assert.Equal(t, "What is a metaclass conflict?", added.Text)
	assert.Equal(t, level.Advanced, added.Level)
	require.NoError(t, s.Close())

	require.NoError(t, execute(t, "questions", "delete", "--db", db, "1"))
	assert.Error(t, execute(t, "questions", "delete", "--db", db, "1"))
}

func TestSeedQuestionsMirrorsBank(t *testing.T) {
	qs := seedQuestions()
	seeds := questionbank.Seeds()
	require.Len(t, qs, len(seeds))
	for i := range qs {
		assert.Equal(t, seeds[i].Text, qs[i].Text)
		assert.Equal(t, seeds[i].Level, qs[i].Level)
	}
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "def f(): return 1", oneLine("def f():\n    return 1"))
}
