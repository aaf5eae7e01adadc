package report

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	perr "tubemail/internal/platform/errors"
	"tubemail/internal/services/harvest/domain"
)

// record is the JSON shape of one email-bearing result
type record struct {
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Emails         []string `json:"emails"`
	HasDescription bool     `json:"has_description"`
}

// WriteJSON writes the email-bearing results as an indented array
func WriteJSON(w io.Writer, rep domain.RunReport) error {
	recs := make([]record, 0, len(rep.Results))
	for _, r := range rep.Results {
		recs = append(recs, record{Title: r.Title, URL: r.URL, Emails: r.Emails, HasDescription: r.HasDescription})
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode report")
	}
	return nil
}

// WriteCSV writes a Title,URL,Emails table with every field quoted
// emails are joined with "; "
func WriteCSV(w io.Writer, rep domain.RunReport) error {
	var b strings.Builder
	b.WriteString("Title,URL,Emails\n")
	for _, r := range rep.Results {
		b.WriteString(quote(r.Title))
		b.WriteByte(',')
		b.WriteString(quote(r.URL))
		b.WriteByte(',')
		b.WriteString(quote(strings.Join(r.Emails, "; ")))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func quote(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

// Paths returns the artifact paths for prefix
func Paths(prefix string) domain.Artifacts {
	return domain.Artifacts{JSON: prefix + ".json", CSV: prefix + ".csv"}
}

// Save writes both artifacts for prefix
// each file is replaced atomically so readers never see a partial report
func Save(prefix string, rep domain.RunReport) (domain.Artifacts, error) {
	paths := Paths(prefix)

	var jb, cb bytes.Buffer
	if err := WriteJSON(&jb, rep); err != nil {
		return domain.Artifacts{}, err
	}
	if err := WriteCSV(&cb, rep); err != nil {
		return domain.Artifacts{}, err
	}
	if err := writeAtomic(paths.JSON, jb.Bytes()); err != nil {
		return domain.Artifacts{}, err
	}
	if err := writeAtomic(paths.CSV, cb.Bytes()); err != nil {
		return domain.Artifacts{}, err
	}
	return paths, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "create temp for %s", path)
	}
	name := tmp.Name()
	defer func() { _ = os.Remove(name) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "write %s", path)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "chmod %s", path)
	}
	if err := tmp.Close(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "close %s", path)
	}
	if err := os.Rename(name, path); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "rename into %s", path)
	}
	return nil
}
