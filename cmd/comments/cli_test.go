package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"comment-insights-go/internal/inference"
	"comment-insights-go/internal/logger"
	"comment-insights-go/internal/pipeline"
	"comment-insights-go/internal/session"
	"comment-insights-go/internal/supplier"
	"comment-insights-go/internal/types"
)

type downSupplier struct{}

func (downSupplier) Fetch(context.Context, string, types.SortOrder) ([]types.RawRecord, error) {
	return nil, fmt.Errorf("service unavailable")
}

func testApp(t *testing.T, sup supplier.Supplier) (*bytes.Buffer, func(args ...string) error) {
	t.Helper()
	log := logger.Discard().Entry
	models := inference.NewMock()
	opts := pipeline.Options{BatchSize: 4, Categories: []string{"Spam", "Sorular", "Şikayet", "Teşekkür", "Öneri"}}
	sess := session.New(sup, pipeline.New(models, models, log), opts, log)
	t.Cleanup(sess.Close)

	var out bytes.Buffer
	app := newCLIApp(sess)
	app.Writer = &out
	app.ErrWriter = io.Discard
	return &out, func(args ...string) error {
		return app.Run(append([]string{"comments"}, args...))
	}
}

func TestRunCommand(t *testing.T) {
	out, run := testApp(t, supplier.NewMock())
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "comments.xlsx")
	charts := filepath.Join(dir, "charts.xlsx")

	err := run("run", "--source=https://youtube.com/watch?v=x", "--sort=recent",
		"--out="+exportPath, "--fields=Text,Sentiment,Topic_Score", "--charts="+charts)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Sentiment Distribution")
	assert.Contains(t, out.String(), "6 of 6 comments classified")

	f, err := excelize.OpenFile(exportPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Comments")
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"Text", "Sentiment", "Topic_Score"}, rows[0])

	_, err = os.Stat(charts)
	assert.NoError(t, err)
}

func TestRunCommand_JSON(t *testing.T) {
	out, run := testApp(t, supplier.NewMock())
	require.NoError(t, run("run", "--source=v", "--sort=popular", "--json"))

	var body struct {
		Report struct {
			Total int `json:"total"`
		} `json:"report"`
		Actions []map[string]string `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	assert.Equal(t, 6, body.Report.Total)
	assert.NotEmpty(t, body.Actions)
}

func TestRunCommand_Errors(t *testing.T) {
	_, run := testApp(t, supplier.NewMock())
	err := run("run", "--source=v", "--sort=oldest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")

	err = run("run", "--source=v")
	require.Error(t, err, "sort is required")
	assert.Contains(t, err.Error(), "sort")

	_, run = testApp(t, downSupplier{})
	err = run("run", "--source=v", "--sort=recent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPPLIER")
}

func TestRunCommand_BadFieldRemovesFile(t *testing.T) {
	_, run := testApp(t, supplier.NewMock())
	path := filepath.Join(t.TempDir(), "out.xlsx")

	err := run("run", "--source=v", "--sort=recent", "--out="+path, "--fields=Likes")
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFieldsCommand(t *testing.T) {
	out, run := testApp(t, supplier.NewMock())
	require.NoError(t, run("fields"))
	assert.Contains(t, out.String(), "Comment ID")
	assert.Contains(t, out.String(), "Topic_Score")
}
