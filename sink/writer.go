// Package sink serializes scraped books to the delimited books.csv artifact.
package sink

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"books-scraper/models"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"
)

// columns is the fixed first row of every output file
var columns = []string{"URL", "Cover Image", "Title", "Price"}

// Options controls how the output file is produced
type Options struct {
	// Quote applies RFC 4180 quoting to fields containing delimiters or quotes.
	// Off by default so the bytes match the plain comma-joined format.
	Quote bool
	// Atomic writes to a pending file and renames it over the destination on success
	Atomic bool
}

// WriteError reports a failure to produce the output file
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer writes books to a file, replacing whatever was there before
type Writer struct {
	path string
	opts Options
	log  *zap.Logger
}

// NewWriter creates a new Writer for path
func NewWriter(path string, opts Options, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{path: path, opts: opts, log: log}
}

// Path returns the destination file
func (w *Writer) Path() string {
	return w.path
}

// WriteBooks writes the header and one row per book
func (w *Writer) WriteBooks(books []models.Book) error {
	var err error
	if w.opts.Atomic {
		err = w.writeAtomic(books)
	} else {
		err = w.writeInPlace(books)
	}
	if err != nil {
		return &WriteError{Path: w.path, Err: err}
	}

	w.log.Info("Wrote books",
		zap.String("path", w.path),
		zap.Int("rows", len(books)),
		zap.Bool("quoted", w.opts.Quote),
	)
	return nil
}

// writeInPlace truncates the destination and leaves whatever was written on failure
func (w *Writer) writeInPlace(books []models.Book) error {
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}

	if err := Encode(f, books, w.opts.Quote); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) writeAtomic(books []models.Book) error {
	pf, err := renameio.NewPendingFile(w.path,
		renameio.WithTempDir(filepath.Dir(w.path)),
		renameio.WithPermissions(0o644),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return err
	}
	defer pf.Cleanup()

	if err := Encode(pf, books, w.opts.Quote); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}

// Encode writes the header and rows to out
func Encode(out io.Writer, books []models.Book, quote bool) error {
	if quote {
		return encodeQuoted(out, books)
	}
	return encodePlain(out, books)
}

// encodePlain joins fields with commas and performs no escaping
func encodePlain(out io.Writer, books []models.Book) error {
	bw := bufio.NewWriter(out)
	if _, err := bw.WriteString(strings.Join(columns, ",") + "\n"); err != nil {
		return err
	}
	for _, b := range books {
		if _, err := bw.WriteString(strings.Join(row(b), ",") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeQuoted(out io.Writer, books []models.Book) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, b := range books {
		if err := cw.Write(row(b)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(b models.Book) []string {
	return []string{b.URL, b.CoverImage, b.Title, b.Price}
}
