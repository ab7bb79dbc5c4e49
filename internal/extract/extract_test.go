package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repomap-dev/repomap/internal/tsparse"
	"github.com/repomap-dev/repomap/internal/types"
)

func parseAndExtract(t *testing.T, lang types.Language, src string) *types.ParsedFile {
	t.Helper()
	pool := tsparse.New()
	tree, ok, err := pool.Parse(lang, []byte(src))
	require.NoError(t, err)
	require.True(t, ok, "expected a clean parse")
	return Extract("test.src", lang, []byte(src), tree)
}

func TestExtractRustPublicFunctionSignatureAndComplexity(t *testing.T) {
	src := "pub fn foo(x: i32) -> i32 { if x>0 {1} else {0} }\n"
	pf := parseAndExtract(t, types.LanguageRust, src)

	require.Len(t, pf.Symbols, 1)
	sym := pf.Symbols[0]
	assert.Equal(t, "foo", sym.Name)
	assert.Equal(t, types.KindFunction, sym.Kind)
	assert.Equal(t, types.VisibilityPublic, sym.Visibility)
	assert.Equal(t, 1, sym.Line)
	assert.Equal(t, "pub fn foo(x: i32) -> i32", sym.Signature)

	require.NotNil(t, sym.Function)
	require.NotNil(t, sym.Function.Body)
	assert.Equal(t, 1, sym.Function.Body.Lines)
	assert.Equal(t, 2, sym.Function.Body.Cyclomatic)
	assert.False(t, sym.Function.IsAsync)
}

func TestExtractRustModulePrivateByDefault(t *testing.T) {
	src := "fn helper() {}\n"
	pf := parseAndExtract(t, types.LanguageRust, src)
	require.Len(t, pf.Symbols, 1)
	assert.Equal(t, types.VisibilityModulePrivate, pf.Symbols[0].Visibility)
}

func TestExtractRustStructWithDerive(t *testing.T) {
	src := "#[derive(Debug, Clone)]\npub struct Widget {\n    name: String,\n}\n"
	pf := parseAndExtract(t, types.LanguageRust, src)
	require.Len(t, pf.Symbols, 1)
	sym := pf.Symbols[0]
	assert.Equal(t, "Widget", sym.Name)
	assert.Equal(t, types.KindStruct, sym.Kind)
	require.NotNil(t, sym.Struct)
	assert.ElementsMatch(t, []string{"Debug", "Clone"}, sym.Struct.Derives)
	assert.Contains(t, sym.Struct.Fields, "name")
}

func TestExtractRustUseDeclarationClassifiesImportGroup(t *testing.T) {
	src := "use std::collections::HashMap;\nuse crate::widget::Widget;\nuse serde::Serialize;\n"
	pf := parseAndExtract(t, types.LanguageRust, src)
	require.Len(t, pf.Imports, 3)

	byGroup := map[types.ImportGroup]int{}
	for _, imp := range pf.Imports {
		byGroup[imp.Group]++
	}
	assert.Equal(t, 1, byGroup[types.ImportStd])
	assert.Equal(t, 1, byGroup[types.ImportInternal])
	assert.Equal(t, 1, byGroup[types.ImportExternal])
}

func TestExtractRustUnsafeBlockRecorded(t *testing.T) {
	src := "fn raw() {\n    unsafe {\n        let _ = 1;\n    }\n}\n"
	pf := parseAndExtract(t, types.LanguageRust, src)
	require.True(t, pf.Symbols[0].Function.Body.HasUnsafe)
	found := false
	for _, s := range pf.Safety.Sites {
		if s.Kind == types.SafetyUnsafeBlock {
			found = true
		}
	}
	assert.True(t, found)
}

func TestExtractRustQuestionMarkMarksFallibleAndErrorOrigin(t *testing.T) {
	src := "fn load() -> Result<i32, String> {\n    let v = compute()?;\n    Ok(v)\n}\n"
	pf := parseAndExtract(t, types.LanguageRust, src)
	require.Len(t, pf.Symbols, 1)
	assert.True(t, pf.Symbols[0].Function.Body.HasFallibleProp)

	var kinds []string
	for _, o := range pf.Errors.Origins {
		kinds = append(kinds, o.Kind)
	}
	assert.Contains(t, kinds, "result_return")
	assert.Contains(t, kinds, "question_mark")
}

func TestExtractRustCallEdgeRecordsTargetName(t *testing.T) {
	src := "fn caller() {\n    helper();\n}\nfn helper() {}\n"
	pf := parseAndExtract(t, types.LanguageRust, src)
	require.Len(t, pf.Calls, 1)
	assert.Equal(t, "caller", pf.Calls[0].CallerName)
	require.Len(t, pf.Calls[0].Edges, 1)
	assert.Equal(t, "helper", pf.Calls[0].Edges[0].TargetName)
}

func TestExtractRustIdentifierOccurrenceIndexIsUppercaseOnly(t *testing.T) {
	src := "struct Widget;\nfn make() -> Widget {\n    Widget\n}\n"
	pf := parseAndExtract(t, types.LanguageRust, src)
	lines, ok := pf.Identifiers["Widget"]
	require.True(t, ok)
	assert.NotEmpty(t, lines)
	_, lowerPresent := pf.Identifiers["make"]
	assert.False(t, lowerPresent)
}

func TestExtractPythonFunctionDocstringAndVisibility(t *testing.T) {
	src := "def helper(x):\n    \"\"\"Does a thing.\"\"\"\n    return x\n\ndef _hidden():\n    pass\n"
	pf := parseAndExtract(t, types.LanguagePython, src)
	require.Len(t, pf.Symbols, 2)
	assert.Equal(t, "helper", pf.Symbols[0].Name)
	assert.Equal(t, types.VisibilityPublic, pf.Symbols[0].Visibility)
	assert.Contains(t, pf.Symbols[0].Doc, "Does a thing")

	assert.Equal(t, "_hidden", pf.Symbols[1].Name)
	assert.Equal(t, types.VisibilityModulePrivate, pf.Symbols[1].Visibility)
}

func TestExtractPythonClassWithProtocolBase(t *testing.T) {
	src := "class Reader(Protocol):\n    def read(self) -> bytes: ...\n"
	pf := parseAndExtract(t, types.LanguagePython, src)
	require.Len(t, pf.Symbols, 2) // class + method def
	classSym := pf.Symbols[0]
	assert.Equal(t, types.KindClass, classSym.Kind)
	require.NotNil(t, classSym.Class)
	assert.True(t, classSym.Class.IsProtocol)
	assert.Contains(t, classSym.Class.Bases, "Protocol")
}

func TestExtractPythonClassWithDottedProtocolAndABCBases(t *testing.T) {
	src := "import abc\nimport typing\n\nclass Reader(typing.Protocol):\n    def read(self) -> bytes: ...\n\nclass Base(abc.ABC):\n    def run(self): ...\n"
	pf := parseAndExtract(t, types.LanguagePython, src)
	require.Len(t, pf.Symbols, 4) // 2 classes + 2 methods

	reader := pf.Symbols[0]
	require.NotNil(t, reader.Class)
	assert.True(t, reader.Class.IsProtocol)
	assert.Contains(t, reader.Class.Bases, "typing.Protocol")

	base := pf.Symbols[2]
	require.NotNil(t, base.Class)
	assert.True(t, base.Class.IsABC)
	assert.Contains(t, base.Class.Bases, "abc.ABC")
}

func TestExtractPythonDangerousCallFlagged(t *testing.T) {
	src := "import subprocess\n\ndef run(cmd):\n    subprocess.run(cmd)\n"
	pf := parseAndExtract(t, types.LanguagePython, src)
	found := false
	for _, s := range pf.Safety.Sites {
		if s.Kind == types.SafetyDangerousCall {
			found = true
		}
	}
	assert.True(t, found)
}

func TestExtractPythonRaiseRecordsExceptionType(t *testing.T) {
	src := "def check(x):\n    if not x:\n        raise ValueError(\"bad\")\n"
	pf := parseAndExtract(t, types.LanguagePython, src)
	require.Len(t, pf.Errors.Origins, 1)
	assert.Equal(t, "raise", pf.Errors.Origins[0].Kind)
	assert.Equal(t, "ValueError", pf.Errors.Origins[0].ExceptionType)
	assert.True(t, pf.Symbols[0].Function.Body.HasPanic)
}

func TestExtractPythonImportFromClassifiesStdlib(t *testing.T) {
	src := "from os import path\nfrom .models import Widget\nfrom requests import get\n"
	pf := parseAndExtract(t, types.LanguagePython, src)
	require.Len(t, pf.Imports, 3)
	byGroup := map[types.ImportGroup]int{}
	for _, imp := range pf.Imports {
		byGroup[imp.Group]++
	}
	assert.Equal(t, 1, byGroup[types.ImportStd])
	assert.Equal(t, 1, byGroup[types.ImportInternal])
	assert.Equal(t, 1, byGroup[types.ImportExternal])
}

func TestExtractRustImplMethodsRecordOwner(t *testing.T) {
	src := "struct Widget;\nimpl Widget {\n    fn new() -> Widget { Widget }\n}\n"
	pf := parseAndExtract(t, types.LanguageRust, src)
	require.Len(t, pf.Symbols, 3) // struct, impl, method

	var method *types.Symbol
	for i := range pf.Symbols {
		if pf.Symbols[i].Kind == types.KindFunction {
			method = &pf.Symbols[i]
		}
	}
	require.NotNil(t, method)
	assert.Equal(t, "Widget", method.Owner)
}

func TestExtractPythonClassMethodsRecordOwner(t *testing.T) {
	src := "class Widget:\n    def render(self):\n        pass\n"
	pf := parseAndExtract(t, types.LanguagePython, src)
	require.Len(t, pf.Symbols, 2)
	assert.Equal(t, types.KindClass, pf.Symbols[0].Kind)
	assert.Equal(t, types.KindFunction, pf.Symbols[1].Kind)
	assert.Equal(t, "Widget", pf.Symbols[1].Owner)
}

func TestExtractEmptyFileYieldsNoSymbols(t *testing.T) {
	pf := parseAndExtract(t, types.LanguageRust, "   \n\n")
	assert.Empty(t, pf.Symbols)
}
