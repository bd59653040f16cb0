package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestAddCmd_Use(t *testing.T) {
	assert.Equal(t, "add [file...]", addCmd.Use)
	assert.Contains(t, addCmd.Long, "not searchable until")
}

func TestAddCmd_RequiresArgs(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "add")
	assert.Error(t, err)
}

func TestAddCmd_UploadsFile(t *testing.T) {
	library := &cliMockLibrary{}
	cleanup := setupWith(library, &cliMockTrainer{}, &cliMockSearch{})
	defer cleanup()

	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 data"), 0600))

	out, err := executeCommand(t, "add", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Added paper.pdf")
	assert.Contains(t, out, "paperbase train")
	require.Len(t, library.docs, 1)
}

func TestAddCmd_Duplicate(t *testing.T) {
	library := &cliMockLibrary{addErr: domain.ErrAlreadyExists}
	cleanup := setupWith(library, &cliMockTrainer{}, &cliMockSearch{})
	defer cleanup()

	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0600))

	_, err := executeCommand(t, "add", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in the library")
}

func TestAddCmd_MissingFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "add", "/nonexistent/paper.pdf")
	assert.Error(t, err)
}

func TestListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents stored")
}

func TestListCmd_ShowsDocuments(t *testing.T) {
	library := &cliMockLibrary{docs: []domain.StoredDocument{
		{Filename: "alpha.pdf", Pages: 12, Size: 2048},
		{Filename: "beta.pdf", Pages: 3, Size: 100},
	}}
	cleanup := setupWith(library, &cliMockTrainer{}, &cliMockSearch{})
	defer cleanup()

	out, err := executeCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha.pdf")
	assert.Contains(t, out, "beta.pdf")
	assert.Contains(t, out, "Total: 2 documents")
}

func TestListCmd_JSON(t *testing.T) {
	library := &cliMockLibrary{docs: []domain.StoredDocument{
		{Filename: "alpha.pdf", Pages: 12, Size: 2048},
	}}
	cleanup := setupWith(library, &cliMockTrainer{}, &cliMockSearch{})
	defer cleanup()

	out, err := executeCommand(t, "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"Filename": "alpha.pdf"`)
}

func TestRemoveCmd(t *testing.T) {
	library := &cliMockLibrary{docs: []domain.StoredDocument{{Filename: "alpha.pdf"}}}
	cleanup := setupWith(library, &cliMockTrainer{}, &cliMockSearch{})
	defer cleanup()

	out, err := executeCommand(t, "remove", "alpha.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed alpha.pdf")
	assert.Empty(t, library.docs)
}

func TestRemoveCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "remove", "missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no document named missing.pdf")
}

func TestInfoCmd_InSync(t *testing.T) {
	library := &cliMockLibrary{info: domain.IndexInfo{
		Documents:        3,
		Vectors:          120,
		DocumentsAtTrain: 3,
		LastTrainedAt:    time.Now(),
		InSync:           true,
	}}
	cleanup := setupWith(library, &cliMockTrainer{}, &cliMockSearch{})
	defer cleanup()

	out, err := executeCommand(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:        3")
	assert.Contains(t, out, "in sync")
}

func TestInfoCmd_OutOfSync(t *testing.T) {
	library := &cliMockLibrary{info: domain.IndexInfo{Documents: 1}}
	cleanup := setupWith(library, &cliMockTrainer{}, &cliMockSearch{})
	defer cleanup()

	out, err := executeCommand(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "out of sync")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "2.0 KiB", formatSize(2048))
	assert.Equal(t, "1.5 MiB", formatSize(1572864))
}
