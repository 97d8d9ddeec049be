package service

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tieubaoca/contract-intel-be/types"
)

var (
	// ErrCorruptPDF means the bytes could not be read as a PDF at all.
	ErrCorruptPDF = errors.New("corrupt or unreadable PDF")
	// ErrEmptyDocument means the PDF is valid but carries no extractable
	// text. Scanned pages fall here; OCR is out of scope.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// Decoder turns raw PDF bytes into ordered pages with character offsets into
// the concatenated full text.
type Decoder interface {
	Decode(pdfBytes []byte) ([]types.Page, error)
}

// PDFService extracts page text by shelling out to the poppler utilities
// (pdfinfo for the page count, pdftotext per page).
type PDFService struct {
	tempDir string
}

func NewPDFService() *PDFService {
	return &PDFService{tempDir: os.TempDir()}
}

// Decode returns the ordered page list. Page offsets are contiguous and
// monotonically increasing: page N ends exactly where page N+1 starts.
func (s *PDFService) Decode(pdfBytes []byte) ([]types.Page, error) {
	tempFile, err := os.CreateTemp(s.tempDir, "contract-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(pdfBytes); err != nil {
		tempFile.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	tempFile.Close()

	totalPages, err := getNumPages(tempFile.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPDF, err)
	}

	pages := make([]types.Page, 0, totalPages)
	charOffset := 0
	hasText := false
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text, err := extractPageText(tempFile.Name(), pageNum)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrCorruptPDF, pageNum, err)
		}
		text = cleanText(text)
		if text != "" {
			hasText = true
		}
		pages = append(pages, types.Page{
			Number:    pageNum,
			Text:      text,
			CharStart: charOffset,
			CharEnd:   charOffset + len(text),
		})
		charOffset += len(text)
	}

	if !hasText {
		return pages, ErrEmptyDocument
	}
	return pages, nil
}

// extractPageText extracts a single page's text using pdftotext.
func extractPageText(filePath string, pageNumber int) (string, error) {
	cmd := exec.Command("pdftotext",
		"-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-enc", "UTF-8", "-nopgbrk",
		filePath, "-")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed for page %d: %w", pageNumber, err)
	}
	return out.String(), nil
}

// getNumPages uses pdfinfo to get the total number of pages in a PDF file.
func getNumPages(pdfPath string) (int, error) {
	cmd := exec.Command("pdfinfo", pdfPath)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("error running pdfinfo: %v", err)
	}

	scanner := bufio.NewScanner(&out)
	re := regexp.MustCompile(`Pages:\s+(\d+)`)
	for scanner.Scan() {
		line := scanner.Text()
		if matches := re.FindStringSubmatch(line); len(matches) == 2 {
			return strconv.Atoi(matches[1])
		}
	}

	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}

func cleanText(text string) string {
	replacements := map[string]string{
		"\u0000": "",   // Null character
		"\ufffd": "",   // Unicode replacement character
		"\u001b": "",   // Escape character
		"\r":     "",   // Carriage return
		"\f":     "\n", // Form feed to newline
	}
	cleaned := text
	for old, new := range replacements {
		cleaned = strings.ReplaceAll(cleaned, old, new)
	}
	return strings.TrimSpace(cleaned)
}

// GetFileNameWithoutExt extracts the base filename without extension.
func GetFileNameWithoutExt(path string) string {
	base := filepath.Base(path)
	if idx := strings.LastIndex(base, "."); idx != -1 {
		base = base[:idx]
	}
	return base
}
