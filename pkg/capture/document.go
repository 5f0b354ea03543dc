package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ValidateDocument checks that a downloaded confirmation document is a
// well-formed PDF before its path is accepted as a document reference.
// Result pages occasionally serve an HTML error page under a .pdf name;
// persisting one of those would leave the traveler without their proof.
func ValidateDocument(path string) error {
	if err := api.ValidateFile(path, nil); err != nil {
		return fmt.Errorf("capture: document %s is not a valid PDF: %w", path, err)
	}
	return nil
}

// DownloadDocument fetches a captured document reference to destPath and
// validates it with ValidateDocument. An invalid download is removed
// before returning, so a kept file is always a well-formed PDF.
func DownloadDocument(ctx context.Context, client *http.Client, docURL, destPath string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return fmt.Errorf("capture: invalid document url %q: %w", docURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("capture: document download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("capture: document download failed: status %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return fmt.Errorf("capture: failed to create document directory: %w", err)
	}
	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("capture: failed to create document file: %w", err)
	}
	_, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(destPath)
		return fmt.Errorf("capture: failed to write document: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(destPath)
		return fmt.Errorf("capture: failed to write document: %w", closeErr)
	}

	if err := ValidateDocument(destPath); err != nil {
		os.Remove(destPath)
		return err
	}
	return nil
}
