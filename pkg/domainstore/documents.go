package domainstore

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/graph"
)

// Upload is a document to attach to a domain.
type Upload struct {
	Filename    string
	Description string
	Content     io.Reader
}

// UploadDocument attaches a file to domainID and returns the stored document.
// The body is streamed through a pipe so large files are never buffered.
func (c *Client) UploadDocument(ctx context.Context, domainID string, up Upload) (graph.Document, error) {
	var doc graph.Document
	if err := errs.ValidateID(domainID); err != nil {
		return doc, err
	}
	if err := errs.ValidateUploadName(up.Filename); err != nil {
		return doc, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeUpload(mw, domainID, up)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	body, _, err := c.do(ctx, request{
		method:      http.MethodPost,
		route:       "/domains/{id}/documents",
		path:        "domains/" + url.PathEscape(domainID) + "/documents",
		body:        pr,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		pr.CloseWithError(err)
		return doc, err
	}
	defer body.Close()
	err = decode(body, &doc)
	return doc, err
}

func writeUpload(mw *multipart.Writer, domainID string, up Upload) error {
	fw, err := mw.CreateFormFile("file", up.Filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, up.Content); err != nil {
		return err
	}
	if err := mw.WriteField("domainId", domainID); err != nil {
		return err
	}
	return mw.WriteField("description", up.Description)
}

// DeleteDocument detaches a document from its domain.
func (c *Client) DeleteDocument(ctx context.Context, domainID, documentID string) error {
	if err := errs.ValidateID(domainID); err != nil {
		return err
	}
	if err := errs.ValidateID(documentID); err != nil {
		return err
	}
	path := "domains/" + url.PathEscape(domainID) + "/documents/" + url.PathEscape(documentID)
	return c.sendJSON(ctx, http.MethodDelete, "/domains/{id}/documents/{doc}", path, nil, nil)
}

// OpenDocument streams the raw bytes of a document. The caller closes the
// returned reader.
func (c *Client) OpenDocument(ctx context.Context, path string) (io.ReadCloser, string, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, "", err
	}
	body, hdr, err := c.do(ctx, request{method: http.MethodGet, route: "/documents/{path}", path: documentPath(path)})
	if err != nil {
		return nil, "", err
	}
	return body, hdr.Get("Content-Type"), nil
}

// Summary returns the store's generated summary of a document.
func (c *Client) Summary(ctx context.Context, path string) (string, error) {
	if err := errs.ValidatePath(path); err != nil {
		return "", err
	}
	var resp graph.SummaryResponse
	err := c.getJSON(ctx, "/documents/{path}/summary", documentPath(path)+"/summary", &resp)
	return resp.Summary, err
}

// Query asks a free-text question about a document.
func (c *Client) Query(ctx context.Context, path, query string) (string, error) {
	if err := errs.ValidatePath(path); err != nil {
		return "", err
	}
	if err := errs.ValidateQuery(query); err != nil {
		return "", err
	}
	var resp graph.QueryResponse
	err := c.sendJSON(ctx, http.MethodPost, "/documents/{path}/query", documentPath(path)+"/query", graph.QueryRequest{Query: query}, &resp)
	return resp.Response, err
}

// DocumentURL returns the absolute URL of a document's raw bytes.
func (c *Client) DocumentURL(path string) string {
	return c.baseURL + "/" + documentPath(path)
}

func documentPath(path string) string {
	return "documents/" + url.PathEscape(path)
}
