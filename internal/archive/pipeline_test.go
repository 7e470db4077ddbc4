package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savevault/savevault/internal/models"
)

// fakeClient implements api.Client for pipeline tests.
type fakeClient struct {
	target models.UploadTarget
	items  []models.BackupItem

	targetErr error
	uploadErr error
	listErr   error

	listCalls      []int
	uploadedName   string
	uploadedSha1   string
	uploadedBytes  []byte
	uploadedTarget models.UploadTarget
}

func (f *fakeClient) ListBackups(ctx context.Context, max int) ([]models.BackupItem, error) {
	f.listCalls = append(f.listCalls, max)
	return f.items, f.listErr
}

func (f *fakeClient) GetUploadTarget(ctx context.Context) (models.UploadTarget, error) {
	if f.targetErr != nil {
		return models.UploadTarget{}, f.targetErr
	}
	return f.target, nil
}

func (f *fakeClient) UploadArchive(ctx context.Context, target models.UploadTarget, fileName, sha1Hex string, data []byte) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploadedTarget = target
	f.uploadedName = fileName
	f.uploadedSha1 = sha1Hex
	f.uploadedBytes = data
	return nil
}

func (f *fakeClient) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Saves 01")
	for rel, data := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	return root
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "My_Save", SanitizeLabel("My Save!!"))
	assert.Equal(t, "Saves_01", SanitizeLabel("Saves 01"))
	assert.Equal(t, "", SanitizeLabel("   "))
	assert.Equal(t, "a.b-c", SanitizeLabel("a.b-c"))
	assert.Len(t, SanitizeLabel("xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"), 40)
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 34, 56, 789*int(time.Millisecond), time.UTC)

	name := FileName(now, "My Save!!", "Saves 01")
	assert.Equal(t, "2026-08-30T12-34-56-789Z_My_Save_Saves_01.zip", name)

	name = FileName(now, "", "")
	assert.Equal(t, "2026-08-30T12-34-56-789Z_backup_folder.zip", name)

	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}Z_My_Save_Saves_01\.zip$`)
	assert.Regexp(t, pattern, FileName(time.Now(), "My Save!!", "Saves 01"))
}

func TestCollect(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"a.txt":        bytes.Repeat([]byte("a"), 100),
		"nested/b.bin": bytes.Repeat([]byte("b"), 300),
		"skip.log":     []byte("noise"),
	})

	sel, err := Collect(root, []string{"**/*.log"})
	require.NoError(t, err)

	assert.Equal(t, "Saves 01", sel.FolderName)
	require.Len(t, sel.Entries, 2)
	assert.Equal(t, "a.txt", sel.Entries[0].RelPath)
	assert.Equal(t, "nested/b.bin", sel.Entries[1].RelPath)
	assert.Equal(t, int64(400), sel.TotalBytes)
}

func TestCollect_InvalidExclude(t *testing.T) {
	_, err := Collect(t.TempDir(), []string{"[bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}

func TestBuildZip_RoundTrip(t *testing.T) {
	data, err := buildZip([]fileContent{
		{relPath: "a.txt", data: []byte("hello")},
		{relPath: "nested/b.bin", data: bytes.Repeat([]byte{0x42}, 300)},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	assert.Equal(t, "a.txt", zr.File[0].Name)
	assert.Equal(t, "nested/b.bin", zr.File[1].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "hello", string(content))
}

func TestPipeline_Run(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"a.sav": bytes.Repeat([]byte("a"), 100),
		"b.sav": bytes.Repeat([]byte("b"), 300),
	})
	sel, err := Collect(root, nil)
	require.NoError(t, err)

	client := &fakeClient{
		target: models.UploadTarget{UploadURL: "https://pod.example", UploadAuthToken: "tok"},
	}

	var progress []int
	var logLines int
	p := New(client, "My Save!!",
		WithProgress(func(pct int) { progress = append(progress, pct) }),
		WithLogger(func(format string, args ...any) { logLines++ }),
	)
	p.now = func() time.Time {
		return time.Date(2026, 8, 30, 1, 2, 3, 4e6, time.UTC)
	}

	name, err := p.Run(context.Background(), sel)
	require.NoError(t, err)

	assert.Equal(t, StateDone, p.State())
	assert.Equal(t, "2026-08-30T01-02-03-004Z_My_Save_Saves_01.zip", name)
	assert.Equal(t, name, client.uploadedName)
	assert.Equal(t, "tok", client.uploadedTarget.UploadAuthToken)

	// The uploaded hash matches the uploaded bytes.
	sum := sha1.Sum(client.uploadedBytes)
	assert.Equal(t, hex.EncodeToString(sum[:]), client.uploadedSha1)

	// The archive holds both files.
	zr, err := zip.NewReader(bytes.NewReader(client.uploadedBytes), int64(len(client.uploadedBytes)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.sav", zr.File[0].Name)
	assert.Equal(t, "b.sav", zr.File[1].Name)

	// Checkpoints: reading scaled by bytes, then the fixed marks through 100.
	assert.Equal(t, []int{15, 60, 80, 82, 86, 90, 100}, progress)

	// The listing refresh runs exactly once.
	assert.Equal(t, []int{120}, client.listCalls)
	assert.Positive(t, logLines)
}

func TestPipeline_EmptySelection(t *testing.T) {
	client := &fakeClient{}
	p := New(client, "label")

	_, err := p.Run(context.Background(), &Selection{FolderName: "empty"})
	require.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, StateError, p.State())
	assert.Empty(t, client.listCalls)
	assert.Nil(t, client.uploadedBytes)
}

func TestPipeline_TargetFailure(t *testing.T) {
	root := writeTree(t, map[string][]byte{"a.sav": []byte("data")})
	sel, err := Collect(root, nil)
	require.NoError(t, err)

	client := &fakeClient{targetErr: errors.New("bucket misconfigured")}
	p := New(client, "")

	_, err = p.Run(context.Background(), sel)
	require.Error(t, err)
	assert.Equal(t, StateError, p.State())
	assert.Empty(t, client.listCalls, "no refresh after a failed run")
}

func TestPipeline_UploadFailure(t *testing.T) {
	root := writeTree(t, map[string][]byte{"a.sav": []byte("data")})
	sel, err := Collect(root, nil)
	require.NoError(t, err)

	client := &fakeClient{uploadErr: errors.New("pod busy")}
	p := New(client, "")

	_, err = p.Run(context.Background(), sel)
	require.Error(t, err)
	assert.Equal(t, StateError, p.State())
	assert.Empty(t, client.listCalls)
}

func TestPipeline_RefreshFailureDoesNotFailRun(t *testing.T) {
	root := writeTree(t, map[string][]byte{"a.sav": []byte("data")})
	sel, err := Collect(root, nil)
	require.NoError(t, err)

	client := &fakeClient{listErr: errors.New("transient")}
	p := New(client, "")

	name, err := p.Run(context.Background(), sel)
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.Equal(t, StateDone, p.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "reading", StateReading.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "unknown", State(99).String())
}
