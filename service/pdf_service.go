package service

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/tieubaoca/pdfchat-be/types"
)

// PDFExtractor counts pages and streams text chunks of a PDF file.
type PDFExtractor interface {
	PageCount(ctx context.Context, filePath string) (int, error)
	// ProcessPDF sends chunks in page order and closes c when done.
	ProcessPDF(ctx context.Context, filePath string, c chan<- types.DocumentChunk) error
}

// PDFService extracts text with poppler's pdftotext, falling back to
// tesseract OCR for pages without a text layer.
type PDFService struct {
	maxChunkSize int // Maximum size of each text chunk, in characters
	overlapSize  int // Characters repeated at the start of the next chunk
	ocrLanguages string
}

var DefaultDocumentServiceConfig = types.DocumentServiceConfig{
	MaxChunkSize: 1000,
	OverlapSize:  200,
}

func NewPDFService(config types.DocumentServiceConfig) *PDFService {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultDocumentServiceConfig.MaxChunkSize
	}
	if config.OverlapSize < 0 || config.OverlapSize >= config.MaxChunkSize {
		config.OverlapSize = 0
	}
	return &PDFService{
		maxChunkSize: config.MaxChunkSize,
		overlapSize:  config.OverlapSize,
		ocrLanguages: "eng",
	}
}

var pagesPattern = regexp.MustCompile(`Pages:\s+(\d+)`)

// PageCount uses pdfinfo to read the total number of pages.
func (s *PDFService) PageCount(ctx context.Context, pdfPath string) (int, error) {
	cmd := exec.CommandContext(ctx, "pdfinfo", pdfPath)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("error running pdfinfo: %v", err)
	}
	return parsePageCount(&out)
}

func parsePageCount(out *bytes.Buffer) (int, error) {
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		if matches := pagesPattern.FindStringSubmatch(scanner.Text()); len(matches) == 2 {
			return strconv.Atoi(matches[1])
		}
	}
	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}

func (s *PDFService) ProcessPDF(ctx context.Context, filePath string, c chan<- types.DocumentChunk) error {
	defer close(c)
	totalPages, err := s.PageCount(ctx, filePath)
	if err != nil {
		return err
	}
	title := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text, err := s.extractText(ctx, filePath, pageNum)
		if err != nil {
			log.Printf("Warning: failed to extract text from page %d: %v", pageNum, err)
			continue
		}
		metadata := types.DocumentMetadata{
			Title:      title,
			Source:     filePath,
			PageNum:    pageNum,
			TotalPages: totalPages,
		}
		for _, chunk := range chunkText(cleanText(text), s.maxChunkSize, s.overlapSize) {
			select {
			case c <- types.DocumentChunk{Content: chunk, Page: pageNum, Metadata: metadata}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (s *PDFService) extractText(ctx context.Context, filePath string, pageNumber int) (string, error) {
	text, err := s.extractTextWithPdftotext(ctx, filePath, pageNumber)
	if err != nil || text == "" {
		text, err = s.extractTextWithTesseract(ctx, filePath, pageNumber)
		if err != nil {
			return "", fmt.Errorf("failed to extract text: %w", err)
		}
	}
	return text, nil
}

func (s *PDFService) extractTextWithPdftotext(ctx context.Context, filePath string, pageNumber int) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext",
		"-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-enc", "UTF-8", "-nopgbrk",
		filePath, "-")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed on page %d: %v", pageNumber, err)
	}
	if trimmed := strings.TrimSpace(out.String()); trimmed != "" {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

func (s *PDFService) extractTextWithTesseract(ctx context.Context, pdfPath string, pageNumber int) (string, error) {
	tempFolder, err := os.MkdirTemp("", "pdfchat-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempFolder)

	convertCmd := exec.CommandContext(ctx, "pdftoppm",
		"-f", strconv.Itoa(pageNumber), "-l", strconv.Itoa(pageNumber),
		"-png", pdfPath, filepath.Join(tempFolder, "page"))
	if err := convertCmd.Run(); err != nil {
		return "", fmt.Errorf("failed to convert page %d to image: %w", pageNumber, err)
	}
	images, err := filepath.Glob(filepath.Join(tempFolder, "page-*.png"))
	if err != nil || len(images) == 0 {
		return "", fmt.Errorf("no image rendered for page %d", pageNumber)
	}

	ocrCmd := exec.CommandContext(ctx, "tesseract",
		images[0], "stdout",
		"-l", s.ocrLanguages,
		"--oem", "3",
		"--psm", "3",
	)
	var out bytes.Buffer
	ocrCmd.Stdout = &out
	if err := ocrCmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run tesseract: %w", err)
	}
	if trimmed := strings.TrimSpace(out.String()); trimmed != "" {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

var (
	controlReplacer = strings.NewReplacer(
		"\u0000", "",
		"\ufffd", "",
		"\u001b", "",
		"\r", "",
		"\f", "\n",
		"\uf8ff", "",
		"‡", "",
		"†", "",
	)
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

func cleanText(text string) string {
	cleaned := controlReplacer.Replace(text)
	cleaned = horizontalSpace.ReplaceAllString(cleaned, " ")
	cleaned = blankLines.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// chunkText splits text into pieces of at most maxSize runes. A piece ends at
// a sentence boundary in its second half when there is one, otherwise at the
// last whitespace. Consecutive pieces share up to overlap runes.
func chunkText(text string, maxSize, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if maxSize <= 0 || len(runes) <= maxSize {
		return []string{string(runes)}
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + maxSize
		if end >= len(runes) {
			if chunk := strings.TrimSpace(string(runes[start:])); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := end
		for i := end - 1; i >= start+maxSize/2; i-- {
			if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
				cut = i + 1
				break
			}
		}
		if cut == end {
			for i := end - 1; i > start; i-- {
				if unicode.IsSpace(runes[i]) {
					cut = i
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:cut])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}
