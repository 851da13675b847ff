package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root, svc, _ := testutil.TestService(t)
	return New(svc, "test"), root
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so dispatch to the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_directory":
		result, err = srv.listDirectory(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "create_document":
		result, err = srv.createDocument(ctx, req)
	case "save_document":
		result, err = srv.saveDocument(ctx, req)
	case "save_document_as":
		result, err = srv.saveDocumentAs(ctx, req)
	case "create_directory":
		result, err = srv.createDirectory(ctx, req)
	case "import_file":
		result, err = srv.importFile(ctx, req)
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	case "list_types":
		result, err = srv.listTypes(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadDocument(t *testing.T) {
	srv, root := testServer(t)

	r := callTool(t, srv, "create_document", map[string]any{
		"title":   "test",
		"type":    "md",
		"content": "# Test\nHello",
	})
	if text := resultText(r); text != "created: test.md" {
		t.Fatalf("create result = %q", text)
	}
	data, err := os.ReadFile(filepath.Join(root, "test.md"))
	if err != nil || string(data) != "# Test\nHello" {
		t.Fatalf("file = %q, %v", data, err)
	}

	r = callTool(t, srv, "read_document", map[string]any{"path": "test.md"})
	var doc struct {
		Content      string `json:"content"`
		DisplayTitle string `json:"display_title"`
		Checksum     string `json:"checksum"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Content != "# Test\nHello" || doc.DisplayTitle != "Test" || doc.Checksum == "" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestCreateDocument_BadType(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_document", map[string]any{"title": "x", "type": "exe"})
	if !r.IsError {
		t.Error("expected error for unknown type")
	}
}

func TestSaveDocument_IfMatch(t *testing.T) {
	srv, root := testServer(t)
	testutil.WriteFile(t, root, "memo.txt", "v1")

	r := callTool(t, srv, "save_document", map[string]any{
		"path":     "memo.txt",
		"content":  "v2",
		"if_match": "stale",
	})
	if !r.IsError {
		t.Fatal("expected conflict for stale checksum")
	}

	r = callTool(t, srv, "save_document", map[string]any{"path": "memo.txt", "content": "v2"})
	if r.IsError {
		t.Fatalf("save failed: %s", resultText(r))
	}
	data, _ := os.ReadFile(filepath.Join(root, "memo.txt"))
	if string(data) != "v2" {
		t.Errorf("content = %q, want v2", data)
	}
}

func TestSaveDocumentAs(t *testing.T) {
	srv, root := testServer(t)
	testutil.WriteFile(t, root, "memo.txt", "body")

	r := callTool(t, srv, "save_document_as", map[string]any{"path": "memo.txt", "target": "memo.md"})
	if r.IsError {
		t.Fatalf("save as failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "memo.md") {
		t.Errorf("result = %q", resultText(r))
	}
	data, _ := os.ReadFile(filepath.Join(root, "memo.md"))
	if string(data) != "body" {
		t.Errorf("copy = %q, want body", data)
	}

	r = callTool(t, srv, "save_document_as", map[string]any{"path": "memo.txt", "target": "memo.md"})
	if !r.IsError {
		t.Error("expected error for existing target")
	}
}

func TestCreateDirectoryAndList(t *testing.T) {
	srv, root := testServer(t)

	r := callTool(t, srv, "create_directory", map[string]any{"name": "projects"})
	if text := resultText(r); text != "directory: projects" {
		t.Fatalf("create dir = %q", text)
	}
	testutil.WriteFile(t, root, "projects/plan.md", "")
	testutil.WriteFile(t, root, "top.txt", "")

	r = callTool(t, srv, "list_directory", map[string]any{})
	if text := resultText(r); text != "projects/\ntop.txt" {
		t.Errorf("root listing = %q", text)
	}
	r = callTool(t, srv, "list_directory", map[string]any{"dir": "projects"})
	if text := resultText(r); text != "projects/plan.md" {
		t.Errorf("projects listing = %q", text)
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestImportFile(t *testing.T) {
	srv, root := testServer(t)
	src := testutil.WriteFile(t, t.TempDir(), "report.txt", "imported")
	testutil.WriteFile(t, root, "report.txt", "original")

	r := callTool(t, srv, "import_file", map[string]any{"source": src})
	if r.IsError {
		t.Fatalf("import failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"report_1.txt"`) {
		t.Errorf("import result = %s", resultText(r))
	}
}

func TestSearchDocuments(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_document", map[string]any{
		"title":   "alpha",
		"type":    "markdown",
		"content": "# Alpha\nneedle in here",
	})

	r := callTool(t, srv, "search_documents", map[string]any{"query": "needle"})
	if !strings.Contains(resultText(r), "alpha.md") {
		t.Errorf("search result = %s", resultText(r))
	}
}

func TestListTypesAndResource(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "list_types", map[string]any{}))
	for _, want := range []string{"| markdown | .md |", "| rich_text | .rtf |", "report_1.txt"} {
		if !strings.Contains(text, want) {
			t.Errorf("types text missing %q", want)
		}
	}

	contents, err := srv.readTypesResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != typesURI || tc.Text != text {
		t.Errorf("resource = %+v", contents[0])
	}
}
