package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/colfile"
	"github.com/ajitpratap0/jsoncol/pkg/columnar"
	"github.com/ajitpratap0/jsoncol/pkg/config"
	"github.com/ajitpratap0/jsoncol/pkg/records"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
	"github.com/ajitpratap0/jsoncol/pkg/testutil"
)

const workedExample = `{"a":1,"b":"x"}
{"a":2,"b":null}
{"a":3,"b":"y"}
`

// streamOnly hides any Seek method of the wrapped reader.
type streamOnly struct {
	io.Reader
}

func readRows(t *testing.T, path string) []columnar.Row {
	t.Helper()
	r, err := colfile.OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	var rows []columnar.Row
	require.NoError(t, r.Rows(func(row columnar.Row) error {
		rows = append(rows, append(columnar.Row(nil), row...))
		return nil
	}))
	return rows
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_WorkedExample(t *testing.T) {
	inputs := map[string]func() io.Reader{
		"seekable": func() io.Reader { return strings.NewReader(workedExample) },
		"stream":   func() io.Reader { return streamOnly{strings.NewReader(workedExample)} },
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Encoding.BlockSize = 2
			conv, err := New(cfg, nil)
			require.NoError(t, err)

			out := filepath.Join(t.TempDir(), "out.jcol")
			summary, err := conv.Run(context.Background(), input(), out)
			require.NoError(t, err)

			want := schema.MustNew(
				schema.Field{Name: "a", Type: schema.TypeInteger},
				schema.Field{Name: "b", Type: schema.TypeString, Nullable: true},
			)
			assert.True(t, want.Equal(summary.Schema), "got %s", summary.Schema)
			assert.Equal(t, int64(3), summary.RowsRead)
			assert.Equal(t, int64(3), summary.RowsWritten)
			assert.Zero(t, summary.RowsSkipped)
			assert.Equal(t, 2, summary.RowGroups)
			assert.Equal(t, 3, summary.Inference.Sampled)

			info, err := os.Stat(out)
			require.NoError(t, err)
			assert.Equal(t, info.Size(), summary.BytesWritten)

			rows := readRows(t, out)
			require.Len(t, rows, 3)
			assert.Equal(t, columnar.Row{columnar.IntValue(1), columnar.StringValue("x")}, rows[0])
			assert.True(t, rows[1][1].IsNull())
			assert.Equal(t, columnar.StringValue("y"), rows[2][1])

			require.Len(t, summary.Footer.RowGroups, 2)
			assert.Equal(t, 2, summary.Footer.RowGroups[0].NumRows)
			assert.Equal(t, 1, summary.Footer.RowGroups[1].NumRows)
			assert.Equal(t, int64(1), summary.Footer.Columns[1].Stats.NullCount)
		})
	}
}

func TestRun_EmptyInputWritesNothing(t *testing.T) {
	conv, err := New(config.Default(), nil)
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = conv.Run(context.Background(), strings.NewReader("\n\n"), filepath.Join(dir, "out.jcol"))
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeSchemaInference))
	assert.Empty(t, dirEntries(t, dir))
}

func TestRun_SkipsBadRecords(t *testing.T) {
	input := `{"a":1}
not json
{"a":"x"}
{"b":2}
{"a":5,"extra":true}
`
	for name, wrap := range map[string]func(io.Reader) io.Reader{
		"seekable": func(r io.Reader) io.Reader { return r },
		"stream":   func(r io.Reader) io.Reader { return streamOnly{r} },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Input.SampleSize = 1
			cfg.Errors.MaxSamples = 2
			conv, err := New(cfg, nil)
			require.NoError(t, err)

			out := filepath.Join(t.TempDir(), "out.jcol")
			summary, err := conv.Run(context.Background(), wrap(strings.NewReader(input)), out)
			require.NoError(t, err)

			assert.Equal(t, int64(5), summary.RowsRead)
			assert.Equal(t, int64(2), summary.RowsWritten)
			assert.Equal(t, int64(3), summary.RowsSkipped)
			assert.Equal(t, map[colerrors.ErrorType]int64{
				colerrors.ErrorTypeParse:        1,
				colerrors.ErrorTypeTypeMismatch: 1,
				colerrors.ErrorTypeMissingField: 1,
			}, summary.Errors)
			require.Len(t, summary.ErrorSamples, 2)
			assert.True(t, colerrors.IsType(summary.ErrorSamples[0], colerrors.ErrorTypeParse))
			assert.Equal(t, int64(1), summary.IgnoredKeys)

			rows := readRows(t, out)
			assert.Equal(t, []columnar.Row{{columnar.IntValue(1)}, {columnar.IntValue(5)}}, rows)
		})
	}
}

func TestRun_ArrayInput(t *testing.T) {
	cfg := config.Default()
	cfg.Encoding.EnableDictionary = true
	cfg.Output.Compression = "zstd"
	conv, err := New(cfg, testutil.TestLogger(t))
	require.NoError(t, err)

	in := testutil.WriteFile(t, "in.json", []byte(testutil.Array(500, testutil.Event)))
	f, err := os.Open(in)
	require.NoError(t, err)
	defer f.Close()

	out := filepath.Join(t.TempDir(), "out.jcol")
	summary, err := conv.Run(testutil.TestContext(t), f, out)
	require.NoError(t, err)
	assert.Equal(t, int64(500), summary.RowsWritten)
	assert.Equal(t, 4, summary.RowGroups)
	assert.Equal(t, "city", summary.Footer.Columns[1].Column)
	assert.Equal(t, 4, summary.Footer.Columns[1].Encodings["dictionary"])
	assert.Equal(t, 4, summary.Footer.Columns[0].Encodings["plain"])

	rows := readRows(t, out)
	require.Len(t, rows, 500)
	assert.Equal(t, columnar.IntValue(499), rows[499][0])
	assert.Equal(t, columnar.StringValue("lima"), rows[499][1])
	assert.Equal(t, columnar.FloatValue(124.75), rows[499][2])
}

func TestRun_CancelledDiscardsOutput(t *testing.T) {
	conv, err := New(config.Default(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	_, err = conv.Run(ctx, strings.NewReader(workedExample), filepath.Join(dir, "out.jcol"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, dirEntries(t, dir))
}

// cancelAfter cancels a context once n bytes have been read.
type cancelAfter struct {
	r      io.Reader
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) Read(p []byte) (int, error) {
	if c.n <= 0 {
		c.cancel()
	}
	if len(p) > 16 {
		p = p[:16]
	}
	n, err := c.r.Read(p)
	c.n -= n
	return n, err
}

func TestRun_CancelledMidStream(t *testing.T) {
	cfg := config.Default()
	cfg.Input.SampleSize = 1
	cfg.Encoding.BlockSize = 1
	conv, err := New(cfg, nil)
	require.NoError(t, err)

	input := strings.Repeat(`{"a":1}`+"\n", 100000)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	_, err = conv.Run(ctx, streamOnly{&cancelAfter{r: strings.NewReader(input), n: 1 << 16, cancel: cancel}}, filepath.Join(dir, "out.jcol"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, dirEntries(t, dir))
}

func TestRun_ParallelEncodingIsDeterministic(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 300; i++ {
		sb.WriteString(`{"a":1,"b":2.5,"c":"s","d":true,"e":[1,2],"f":null,"g":"`)
		sb.WriteString(strings.Repeat("x", i%7))
		sb.WriteString("\"}\n")
	}
	input := sb.String()

	run := func(workers int) []byte {
		cfg := config.Default()
		cfg.Encoding.Workers = workers
		cfg.Encoding.EnableDictionary = true
		cfg.Encoding.BlockSize = 64
		cfg.Output.Compression = "snappy"
		conv, err := New(cfg, nil)
		require.NoError(t, err)

		out := filepath.Join(t.TempDir(), "out.jcol")
		_, err = conv.Run(context.Background(), strings.NewReader(input), out)
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		return data
	}

	assert.True(t, bytes.Equal(run(1), run(4)))
}

type fakeSink struct {
	calls []string
	err   error
}

func (f *fakeSink) Put(_ context.Context, localPath, dest string) error {
	f.calls = append(f.calls, localPath+" -> "+dest)
	return f.err
}

func TestRun_Upload(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Upload = "s3://bucket/data/out.jcol"
	out := filepath.Join(t.TempDir(), "out.jcol")

	sink := &fakeSink{}
	conv, err := New(cfg, nil, WithSink(sink))
	require.NoError(t, err)
	summary, err := conv.Run(context.Background(), strings.NewReader(workedExample), out)
	require.NoError(t, err)
	assert.Equal(t, []string{out + " -> s3://bucket/data/out.jcol"}, sink.calls)
	assert.Equal(t, "s3://bucket/data/out.jcol", summary.Uploaded)

	failing := &fakeSink{err: errors.New("denied")}
	conv, err = New(cfg, nil, WithSink(failing))
	require.NoError(t, err)
	summary, err = conv.Run(context.Background(), strings.NewReader(workedExample), out)
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeIO))
	assert.Empty(t, summary.Uploaded)
	_, statErr := os.Stat(out)
	assert.NoError(t, statErr, "local file is complete before the upload")
}

func TestRun_MetricsFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Observability.MetricsFile = filepath.Join(dir, "run.prom")
	conv, err := New(cfg, nil, WithCreatedBy("jsoncol-test"))
	require.NoError(t, err)

	summary, err := conv.Run(context.Background(), strings.NewReader(workedExample), filepath.Join(dir, "out.jcol"))
	require.NoError(t, err)
	assert.Equal(t, "jsoncol-test", summary.Footer.CreatedBy)

	data, err := os.ReadFile(cfg.Observability.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `jsoncol_records_total{status="written"} 3`)
	assert.Contains(t, string(data), "jsoncol_row_groups_total 1")
}

func TestRun_OutputIsWorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	out := filepath.Join(t.TempDir(), "out.jcol")
	conv, err := New(config.Default(), nil)
	require.NoError(t, err)
	_, err = conv.Run(context.Background(), strings.NewReader(workedExample), out)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Encoding.BlockSize = 0
	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))
}

func TestReplay(t *testing.T) {
	rec := newRecorder(&staticSource{n: 3})
	_, err := rec.Next()
	require.NoError(t, err)

	rp := rec.replay().(*replay)
	assert.Equal(t, 1, rp.buffered())

	var positions []int64
	for {
		r, err := rp.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		positions = append(positions, r.Position)
	}
	assert.Equal(t, []int64{1, 2, 3}, positions)
}

type staticSource struct {
	n, pos int
}

func (s *staticSource) Next() (*records.Record, error) {
	if s.pos >= s.n {
		return nil, io.EOF
	}
	s.pos++
	r := records.NewRecord([]string{"a"}, []interface{}{nil})
	r.Position = int64(s.pos)
	return r, nil
}
