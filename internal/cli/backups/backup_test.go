package backups

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndrdev/totalrecover/internal/cli/clitest"
)

func stubConfirm(t *testing.T, answer bool) *int {
	t.Helper()
	calls := 0
	old := confirm
	confirm = func(string, string) (bool, error) {
		calls++
		return answer, nil
	}
	t.Cleanup(func() { confirm = old })
	return &calls
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, out := clitest.NewContext(t)

	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No backups found.")

	out.Reset()
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "✓ Backup created: totalrecover-")

	out.Reset()
	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Available backups (1 total, keeping most recent 14)")
}

func TestBackupRestoreCmd(t *testing.T) {
	ctx, out := clitest.NewContext(t)
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))

	// Data added after the backup disappears on restore
	clitest.SeedPatient(t, ctx)

	backupDir := filepath.Join(filepath.Dir(ctx.Store.GetConfigPath()), "backups")
	matches, err := filepath.Glob(filepath.Join(backupDir, "totalrecover-*.db"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	calls := stubConfirm(t, true)
	require.NoError(t, (&BackupRestoreCmd{BackupFile: filepath.Base(matches[0])}).Run(ctx))
	assert.Equal(t, 1, *calls)
	assert.Contains(t, out.String(), "✓ Database restored successfully!")
	assert.Contains(t, out.String(), "Previous database saved as")

	require.NoError(t, ctx.Store.Load())
	patients, err := ctx.Store.GetAllPatients()
	require.NoError(t, err)
	assert.Empty(t, patients)
}

func TestBackupRestoreCmd_Cancelled(t *testing.T) {
	ctx, out := clitest.NewContext(t)
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))
	clitest.SeedPatient(t, ctx)

	stubConfirm(t, false)
	require.NoError(t, (&BackupRestoreCmd{BackupFile: "whatever.db"}).Run(ctx))
	assert.Contains(t, out.String(), "Restore cancelled.")

	patients, err := ctx.Store.GetAllPatients()
	require.NoError(t, err)
	assert.Len(t, patients, 1)
}

func TestBackupRestoreCmd_MissingFile(t *testing.T) {
	ctx, _ := clitest.NewContext(t)
	calls := stubConfirm(t, true)

	assert.Error(t, (&BackupRestoreCmd{BackupFile: "totalrecover-20200101-000000.db", Yes: true}).Run(ctx))
	assert.Equal(t, 0, *calls)
}
