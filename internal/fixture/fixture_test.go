package fixture

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcheck/internal/domain"
)

func TestLoad_Testdata(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "func_a_b.json"))
	require.NoError(t, err)

	assert.Equal(t, "func_a_b", f.Name)
	assert.Equal(t, "func_a_b", f.FunctionName())
	assert.Equal(t, "Verdict", f.EventName())
	require.Len(t, f.Cases, 30)

	// Rows called out as seed scenarios
	seeds := map[[2]int64]domain.Verdict{
		{-37, -41}:  0,
		{34, 96}:    1,
		{-100, -26}: 0,
		{62, 62}:    1,
		{99, 30}:    1,
	}
	found := 0
	for _, tc := range f.Cases {
		if want, ok := seeds[[2]int64{tc.InputA, tc.InputB}]; ok {
			assert.Equal(t, want, tc.Expected, "case %s", tc)
			found++
		}
	}
	assert.Equal(t, len(seeds), found)
}

func TestDecode_Validation(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{name: "verdict out of range", format: FormatJSON, input: `{"cases":[{"input_a":1,"input_b":2,"expected_verdict":2}]}`},
		{name: "missing verdict", format: FormatJSON, input: `{"cases":[{"input_a":1,"input_b":2}]}`},
		{name: "fractional input", format: FormatJSON, input: `{"cases":[{"input_a":1.5,"input_b":2,"expected_verdict":0}]}`},
		{name: "unknown field", format: FormatJSON, input: `{"cases":[{"input_a":1,"input_b":2,"expected_verdict":0,"note":"x"}]}`},
		{name: "no cases", format: FormatJSON, input: `{"cases":[]}`},
		{name: "overflowing input", format: FormatJSON, input: `{"cases":[{"input_a":9223372036854775808,"input_b":2,"expected_verdict":0}]}`},
		{name: "yaml verdict out of range", format: FormatYAML, input: "cases:\n  - input_a: 1\n    input_b: 2\n    expected_verdict: 7\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFixture), "expected ErrInvalidFixture, got %v", err)
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	original := &domain.Fixture{
		Name:     "extremes",
		Function: "func_a_b",
		Event:    "Verdict",
		Cases: []domain.TestCase{
			{InputA: -100, InputB: 99, Expected: 0},
			{InputA: math.MaxInt64, InputB: math.MinInt64, Expected: 1},
			{InputA: 9007199254740993, InputB: -9007199254740993, Expected: 0},
		},
	}

	for _, name := range []string{"extremes.json", "extremes.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(path, original))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, original.Cases, loaded.Cases)
			assert.Equal(t, original.Name, loaded.Name)

			// A second save must produce identical bytes
			first, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NoError(t, Save(path, loaded))
			second, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))
		})
	}
}

func TestLoad_NameFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gt_zero.yml")
	require.NoError(t, os.WriteFile(path, []byte("cases:\n  - {input_a: 1, input_b: 0, expected_verdict: 1}\n"), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gt_zero", f.Name)
	assert.Equal(t, path, f.Path)
	assert.Equal(t, domain.DefaultFunction, f.FunctionName())
}

func TestDigest(t *testing.T) {
	base := &domain.Fixture{Name: "a", Cases: []domain.TestCase{{InputA: 1, InputB: 2, Expected: 1}}}

	d1, err := Digest(base)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d1, "blake3:"))

	t.Run("name does not matter", func(t *testing.T) {
		renamed := *base
		renamed.Name = "b"
		d2, err := Digest(&renamed)
		require.NoError(t, err)
		assert.Equal(t, d1, d2)
	})

	t.Run("explicit defaults match implicit ones", func(t *testing.T) {
		explicit := *base
		explicit.Function = domain.DefaultFunction
		explicit.Event = domain.DefaultEventName
		d2, err := Digest(&explicit)
		require.NoError(t, err)
		assert.Equal(t, d1, d2)
	})

	t.Run("verdict change changes digest", func(t *testing.T) {
		changed := *base
		changed.Cases = []domain.TestCase{{InputA: 1, InputB: 2, Expected: 0}}
		d2, err := Digest(&changed)
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)
	})

	t.Run("large inputs stay distinct", func(t *testing.T) {
		x := &domain.Fixture{Cases: []domain.TestCase{{InputA: 9007199254740992, Expected: 0}}}
		y := &domain.Fixture{Cases: []domain.TestCase{{InputA: 9007199254740993, Expected: 0}}}
		dx, err := Digest(x)
		require.NoError(t, err)
		dy, err := Digest(y)
		require.NoError(t, err)
		assert.NotEqual(t, dx, dy)
	})

	t.Run("json and yaml copies agree", func(t *testing.T) {
		f, err := Load(filepath.Join("testdata", "func_a_b.json"))
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "copy.yaml")
		require.NoError(t, Save(path, f))
		g, err := Load(path)
		require.NoError(t, err)

		df, err := Digest(f)
		require.NoError(t, err)
		dg, err := Digest(g)
		require.NoError(t, err)
		assert.Equal(t, df, dg)
	})
}

func TestImportHarness(t *testing.T) {
	file, err := os.Open(filepath.Join("testdata", "Contract.js"))
	require.NoError(t, err)
	defer file.Close()

	imported, err := ImportHarness(file)
	require.NoError(t, err)

	expected, err := Load(filepath.Join("testdata", "func_a_b.json"))
	require.NoError(t, err)

	assert.Equal(t, "MyTest", imported.Name)
	assert.Equal(t, "func_a_b", imported.Function)
	assert.Equal(t, "Verdict", imported.Event)
	assert.Equal(t, expected.Cases, imported.Cases)
}

func TestImportHarness_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: `describe("x", function () {});`},
		{name: "verdict out of range", input: `await expect(contract.f(1, 2)).to.emit(contract, "Verdict").withArgs(3);`},
		{
			name: "mixed functions",
			input: `await expect(contract.f(1, 2)).to.emit(contract, "Verdict").withArgs(1);
await expect(contract.g(1, 2)).to.emit(contract, "Verdict").withArgs(1);`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportHarness(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrInvalidFixture)
		})
	}
}

func TestExportHarness_RoundTrip(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "func_a_b.json"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportHarness(&buf, f, ""))
	assert.Contains(t, buf.String(), `ethers.deployContract("Contract")`)
	assert.Contains(t, buf.String(), "await expect(contract.func_a_b(-37, -41))\n.to.emit(contract, \"Verdict\")\n.withArgs(0);")

	back, err := ImportHarness(&buf)
	require.NoError(t, err)
	assert.Equal(t, f.Cases, back.Cases)
	assert.Equal(t, f.Name, back.Name)
}
