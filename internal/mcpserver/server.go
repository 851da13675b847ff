// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Folio tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/libraryservice"
)

const typesURI = "folio://document-types"

// Server wraps the MCP server with Folio tools.
type Server struct {
	mcp *server.MCPServer
	svc *libraryservice.Service
}

// New creates a new MCP server with all Folio tools registered.
func New(svc *libraryservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_directory",
		mcp.WithDescription("List the subdirectories and documents of one library directory."),
		mcp.WithString("dir", mcp.Description("Directory relative to the library root (empty for the root)")),
	), s.listDirectory)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a document together with its checksum."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. projects/plan.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new document. The file name is <title>.<extension of type>. "+
			"Read the folio://document-types resource or call list_types first."),
		mcp.WithString("dir", mcp.Description("Target directory (empty for the root)")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Document title, a single path segment")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Type name or extension, e.g. markdown or md")),
		mcp.WithString("content", mcp.Description("Optional initial content")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Replace the content of an existing document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New full content")),
		mcp.WithString("if_match", mcp.Description("Checksum from read_document; the save is refused if the file changed")),
	), s.saveDocument)

	s.mcp.AddTool(mcp.NewTool("save_document_as",
		mcp.WithDescription("Copy a document's content to a new file. The target extension picks the new type; existing files are never overwritten."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the source document")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Relative path of the new file, e.g. archive/plan.txt")),
	), s.saveDocumentAs)

	s.mcp.AddTool(mcp.NewTool("create_directory",
		mcp.WithDescription("Create a directory. Creating an existing directory succeeds."),
		mcp.WithString("parent", mcp.Description("Parent directory (empty for the root)")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New directory name")),
	), s.createDirectory)

	s.mcp.AddTool(mcp.NewTool("import_file",
		mcp.WithDescription("Copy a file from the host into the library without overwriting anything."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Absolute path of the file to import")),
		mcp.WithString("dir", mcp.Description("Target directory (empty for the root)")),
	), s.importFile)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("list_types",
		mcp.WithDescription("Returns the supported document types and naming rules."),
	), s.listTypes)

	s.mcp.AddResource(
		mcp.NewResource(typesURI, "Document Types",
			mcp.WithResourceDescription("Supported document types, extensions and naming rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTypesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listing, err := s.svc.Tree(ctx, req.GetString("dir", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, d := range listing.Directories {
		lines = append(lines, d.Path+"/")
	}
	for _, d := range listing.Documents {
		lines = append(lines, d.Path)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("empty directory"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.OpenDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot open %s: %v", path, err)), nil
	}
	return jsonResult(doc)
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawType, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typ, err := doctype.Parse(rawType)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.svc.CreateDocument(ctx, req.GetString("dir", ""), title, typ)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if content := req.GetString("content", ""); content != "" {
		if _, err := s.svc.SaveDocument(ctx, doc.Path, content, ""); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", doc.Path)), nil
}

func (s *Server) saveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.SaveDocument(ctx, path, content, req.GetString("if_match", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s (checksum %s)", doc.Path, doc.Checksum)), nil
}

func (s *Server) saveDocumentAs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.SaveDocumentAs(ctx, path, target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved as: %s (checksum %s)", doc.Path, doc.Checksum)), nil
}

func (s *Server) createDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, err := s.svc.CreateDirectory(ctx, req.GetString("parent", ""), name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("directory: %s", dir.Path)), nil
}

func (s *Server) importFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Import(ctx, req.GetString("dir", ""), src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) listTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentTypes()), nil
}

func (s *Server) readTypesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      typesURI,
			MIMEType: "text/markdown",
			Text:     DocumentTypes(),
		},
	}, nil
}
