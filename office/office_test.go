package office

import (
	"context"
	"errors"
	"testing"
)

func TestDetectMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := Detect()
	if err == nil {
		t.Skip("soffice installed outside PATH")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestExportPDFNilConverter(t *testing.T) {
	var c *Converter
	if _, err := c.ExportPDF(context.Background(), "in.pptx", t.TempDir()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
