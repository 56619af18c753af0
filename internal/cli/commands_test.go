package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = "testdata/catalog"

type execResult struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, args ...string) execResult {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return execResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

// decodeData unmarshals the data of a JSON CLIResponse into v.
func decodeData(t *testing.T, stdout string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "ok", resp.Status, stdout)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func decodeError(t *testing.T, stdout string) CLIError {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestEncodeCommand_Text(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bigint", []string{"bigint", "42"}, "BIGINT '42'"},
		{"integer int32", []string{"integer", "7", "--native", "int32"}, "7"},
		{"nan", []string{"double", "NaN"}, "nan()"},
		{"decimal", []string{"decimal(10,2)", "12.34"}, "CAST(DECIMAL '12.34' AS decimal(10,2))"},
		{"varchar", []string{"varchar(3)", "abc"}, "'abc'"},
		{"empty varchar", []string{"varchar", ""}, "CAST('' AS varchar)"},
		{"null", []string{"varchar", "null"}, "CAST(null AS varchar)"},
		{"date", []string{"date", "2001-08-22"}, "DATE '2001-08-22'"},
		{"varbinary", []string{"varbinary", "AAE="}, `"$literal$varbinary"(from_base64('AAE='))`},
		{"extension", []string{"color", "3", "--catalog", testCatalog}, `"$literal$color"(BIGINT '3')`},
		{"boolean extension", []string{"flag", "true", "--catalog", testCatalog}, `"$literal$flag"(true)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, append([]string{"encode"}, tt.args...)...)
			require.NoError(t, res.err, res.stdout)
			assert.Equal(t, tt.want+"\n", res.stdout)
		})
	}
}

func TestEncodeCommand_JSON(t *testing.T) {
	res := execute(t, "encode", "color", "3", "--catalog", testCatalog, "--format", "json")
	require.NoError(t, res.err)

	var got EncodeResult
	decodeData(t, res.stdout, &got)
	assert.Equal(t, "color", got.Type)
	assert.Equal(t, `"$literal$color"(BIGINT '3')`, got.SQL)
	assert.Equal(t, "magic", got.Form)
	assert.Len(t, got.Fingerprint, 64)
	assert.Equal(t, "$literal$color(bigint):color", got.Signature)
	assert.Empty(t, got.FragmentID)
}

func TestEncodeCommand_Array(t *testing.T) {
	res := execute(t, "encode", "array(bigint)", "[1, 2, null]", "--format", "json")
	require.NoError(t, res.err)

	var got EncodeResult
	decodeData(t, res.stdout, &got)
	assert.Equal(t, "binary", got.Form)
	assert.True(t, strings.HasPrefix(got.SQL, `"$literal$array(bigint)"(from_base64('`), got.SQL)
	assert.Equal(t, "$literal$array(bigint)(varbinary):array(bigint)", got.Signature)
}

func TestEncodeCommand_Verbose(t *testing.T) {
	res := execute(t, "encode", "double", "1.5", "-v")
	require.NoError(t, res.err)

	assert.Equal(t, "1.5E0\n", res.stdout)
	assert.Contains(t, res.stderr, "form: native")
	assert.Contains(t, res.stderr, "fingerprint: ")
}

func TestEncodeCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"unknown type", []string{"tdigest", "AAE="}, ErrCodeInvalidType},
		{"bad value", []string{"bigint", "forty-two"}, ErrCodeInvalidValue},
		{"bad native", []string{"bigint", "1", "--native", "int16"}, ErrCodeInvalidValue},
		{"mismatch", []string{"boolean", "1", "--native", "int64"}, ErrCodeEncoding},
		{"missing catalog", []string{"bigint", "1", "--catalog", "testdata/missing"}, ErrCodeCatalog},
		{"save without db", []string{"bigint", "1", "--save"}, ErrCodeStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, append([]string{"encode", "--format", "json"}, tt.args...)...)
			require.Error(t, res.err)
			assert.Equal(t, ExitCommandError, GetExitCode(res.err))
			assert.Equal(t, tt.wantCode, decodeError(t, res.stdout).Code)
		})
	}
}

func TestEncodeCommand_TextError(t *testing.T) {
	res := execute(t, "encode", "boolean", "1", "--native", "int64")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "Error [E004]: encoding boolean value")
	assert.Contains(t, res.err.Error(), "E004")
}

func TestEncodeCommand_Save(t *testing.T) {
	db := filepath.Join(t.TempDir(), "litenc.db")

	res := execute(t, "encode", "color", "3", "--catalog", testCatalog, "--save", "--db", db, "--format", "json")
	require.NoError(t, res.err)
	var saved EncodeResult
	decodeData(t, res.stdout, &saved)
	require.NotEmpty(t, saved.FragmentID)

	res = execute(t, "encode", "bigint", "5", "--save", "--db", db, "--format", "json")
	require.NoError(t, res.err)
	var plain EncodeResult
	decodeData(t, res.stdout, &plain)
	assert.Empty(t, plain.Signature)

	res = execute(t, "registry", "list", "--catalog", testCatalog, "--db", db)
	require.NoError(t, res.err)
	assert.Equal(t, "$literal$color(bigint):color\n", res.stdout)

	res = execute(t, "fragment", "list", "--db", db, "--format", "json")
	require.NoError(t, res.err)
	var all FragmentListResult
	decodeData(t, res.stdout, &all)
	require.Len(t, all.Fragments, 2)
	assert.Equal(t, saved.FragmentID, all.Fragments[0].ID)
	assert.Equal(t, plain.FragmentID, all.Fragments[1].ID)

	res = execute(t, "fragment", "list", "--db", db, "--using", "$literal$color", "--format", "json")
	require.NoError(t, res.err)
	var using FragmentListResult
	decodeData(t, res.stdout, &using)
	require.Len(t, using.Fragments, 1)
	assert.Equal(t, saved.FragmentID, using.Fragments[0].ID)

	res = execute(t, "fragment", "show", saved.FragmentID, "--catalog", testCatalog, "--db", db)
	require.NoError(t, res.err)
	assert.Equal(t, `"$literal$color"(BIGINT '3')`+"\n", res.stdout)
}

func TestSignatureCommand(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		want string
	}{
		{"bytes extension", "hyperloglog", "$literal$hyperloglog(varbinary):hyperloglog"},
		{"int64 extension", "color", "$literal$color(bigint):color"},
		{"varchar", "varchar(3)", "$literal$varchar(3)(varchar(3)):varchar(3)"},
		{"array", "array(double)", "$literal$array(double)(varbinary):array(double)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, "signature", tt.typ, "--catalog", testCatalog)
			require.NoError(t, res.err)
			assert.Equal(t, tt.want+"\n", res.stdout)
		})
	}
}

func TestSignatureCommand_JSON(t *testing.T) {
	res := execute(t, "signature", "hyperloglog", "--catalog", testCatalog, "--format", "json")
	require.NoError(t, res.err)

	var got SignatureResult
	decodeData(t, res.stdout, &got)
	assert.Equal(t, "system.builtin.$literal$hyperloglog", got.Name)
	assert.Equal(t, "hyperloglog", got.ReturnType)
	assert.Equal(t, []string{"varbinary"}, got.ArgumentTypes)
	assert.Equal(t, "varbinary", got.Representation)
}

func TestSignatureCommand_UnknownType(t *testing.T) {
	res := execute(t, "signature", "hyperloglog", "--format", "json")
	require.Error(t, res.err)
	assert.Equal(t, ErrCodeInvalidType, decodeError(t, res.stdout).Code)
}

func TestVerifyCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nan", []string{"double", "NaN"}, "✓ nan() evaluates to double NaN"},
		{"real infinity", []string{"real", "--", "-Infinity"}, "✓ -CAST(infinity() AS real) evaluates to real"},
		{"extension", []string{"color", "3", "--catalog", testCatalog}, `✓ "$literal$color"(BIGINT '3') evaluates to color 3`},
		{"null", []string{"bigint", "null"}, "✓ CAST(null AS bigint) evaluates to bigint NULL"},
		{"array", []string{"array(varchar)", "[a, null]"}, "evaluates to array(varchar) block("},
		{"long decimal", []string{"decimal(38,2)", "-12345678901234567890.5"}, "evaluates to decimal(38,2) -1234567890123456789050"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, append([]string{"verify"}, tt.args...)...)
			require.NoError(t, res.err, res.stdout)
			assert.Contains(t, res.stdout, tt.want)
		})
	}
}

func TestVerifyCommand_JSON(t *testing.T) {
	res := execute(t, "verify", "timestamp", "2001-08-22 03:04:05.321", "--format", "json")
	require.NoError(t, res.err)

	var got VerifyResult
	decodeData(t, res.stdout, &got)
	assert.Equal(t, "timestamp", got.Type)
	assert.Equal(t, "TIMESTAMP '2001-08-22 03:04:05.321'", got.SQL)
	assert.Equal(t, "998449445321", got.Value)
}

func TestVerifyCommand_Errors(t *testing.T) {
	res := execute(t, "verify", "boolean", "1", "--native", "int64", "--format", "json")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Equal(t, ErrCodeEncoding, decodeError(t, res.stdout).Code)
}

func TestRegistryCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "litenc.db")

	res := execute(t, "registry", "list", "--db", db)
	require.NoError(t, res.err)
	assert.Equal(t, "No functions registered.\n", res.stdout)

	res = execute(t, "registry", "register", "hyperloglog", "color", "--catalog", testCatalog, "--db", db)
	require.NoError(t, res.err)
	assert.Equal(t,
		"$literal$hyperloglog(varbinary):hyperloglog (added)\n$literal$color(bigint):color (added)\n",
		res.stdout)

	res = execute(t, "registry", "register", "color", "--catalog", testCatalog, "--db", db, "--format", "json")
	require.NoError(t, res.err)
	var again RegisterResult
	decodeData(t, res.stdout, &again)
	require.Len(t, again.Functions, 1)
	assert.False(t, again.Functions[0].Inserted)
	assert.Equal(t, "$literal$color(bigint):color", again.Functions[0].Signature)

	res = execute(t, "registry", "list", "--catalog", testCatalog, "--db", db, "--format", "json")
	require.NoError(t, res.err)
	var list ListResult
	decodeData(t, res.stdout, &list)
	require.Len(t, list.Functions, 2)
	assert.Equal(t, "$literal$color(bigint):color", list.Functions[0].Signature)
	assert.Equal(t, "$literal$hyperloglog(varbinary):hyperloglog", list.Functions[1].Signature)
}

func TestRegistryCommand_Conflict(t *testing.T) {
	db := filepath.Join(t.TempDir(), "litenc.db")

	res := execute(t, "registry", "register", "color", "--catalog", testCatalog, "--db", db)
	require.NoError(t, res.err)

	res = execute(t, "registry", "register", "color", "--catalog", "testdata/recolored", "--db", db, "--format", "json")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	cliErr := decodeError(t, res.stdout)
	assert.Equal(t, ErrCodeRegistryClash, cliErr.Code)
	assert.Contains(t, cliErr.Message, "(bigint):color")
	assert.Contains(t, cliErr.Message, "(double):color")
}

func TestRegistryCommand_RequiresDB(t *testing.T) {
	res := execute(t, "registry", "list", "--format", "json")
	require.Error(t, res.err)
	assert.Equal(t, ErrCodeStore, decodeError(t, res.stdout).Code)
}

func TestFragmentCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "litenc.db")

	res := execute(t, "fragment", "list", "--db", db)
	require.NoError(t, res.err)
	assert.Equal(t, "No fragments.\n", res.stdout)

	for _, v := range []string{"1", "1", "2"} {
		res = execute(t, "encode", "bigint", v, "--save", "--db", db)
		require.NoError(t, res.err)
	}

	res = execute(t, "fragment", "list", "--db", db, "--format", "json")
	require.NoError(t, res.err)
	var all FragmentListResult
	decodeData(t, res.stdout, &all)
	require.Len(t, all.Fragments, 3)
	assert.Equal(t, all.Fragments[0].Fingerprint, all.Fragments[1].Fingerprint)
	assert.NotEqual(t, all.Fragments[0].Fingerprint, all.Fragments[2].Fingerprint)

	res = execute(t, "fragment", "list", "--db", db, "--fingerprint", all.Fragments[0].Fingerprint, "--format", "json")
	require.NoError(t, res.err)
	var same FragmentListResult
	decodeData(t, res.stdout, &same)
	assert.Len(t, same.Fragments, 2)

	res = execute(t, "fragment", "list", "--db", db, "--fingerprint", all.Fragments[0].Fingerprint, "--using", "$literal$color", "--format", "json")
	require.NoError(t, res.err)
	var none FragmentListResult
	decodeData(t, res.stdout, &none)
	assert.Empty(t, none.Fragments)

	res = execute(t, "fragment", "show", all.Fragments[2].ID, "--db", db, "--format", "json")
	require.NoError(t, res.err)
	var shown FragmentResult
	decodeData(t, res.stdout, &shown)
	assert.Equal(t, []string{"BIGINT '2'"}, shown.Expressions)
}

func TestFragmentCommand_NotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "litenc.db")

	res := execute(t, "fragment", "show", "0190b3c4-0000-7000-8000-000000000000", "--db", db, "--format", "json")
	require.Error(t, res.err)
	assert.Equal(t, ErrCodeNotFound, decodeError(t, res.stdout).Code)
}
