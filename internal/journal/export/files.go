package export

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var plainSuffixes = []string{".json", ".jsonl", ".ndjson"}

const zstdSuffix = ".json.zst"

// isExportFile reports whether name looks like a journalctl JSON export.
func isExportFile(name string) bool {
	if strings.HasSuffix(name, zstdSuffix) {
		return true
	}
	for _, s := range plainSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// listFiles expands paths into export files. Directories contribute their
// matching entries in name order; plain files are taken as given.
func listFiles(paths []string) (files, dirs []string, err error) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		dirs = append(dirs, p)
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, nil, err
		}
		for _, e := range entries {
			if e.Type()&fs.ModeType != 0 || !isExportFile(e.Name()) {
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
	}
	return files, dirs, nil
}

// source tracks how much of one file has been consumed.
type source struct {
	path   string
	offset int64
	// done is set for compressed archives, which are read once.
	done bool
}

// readNew returns the complete lines appended since the last call. A
// trailing partial line is left for the next call.
func (s *source) readNew() ([][]byte, error) {
	if s.done {
		return nil, nil
	}
	if strings.HasSuffix(s.path, zstdSuffix) {
		s.done = true
		return readCompressed(s.path)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < s.offset {
		return nil, fmt.Errorf("%s: file shrank from %d to %d bytes", s.path, s.offset, info.Size())
	}
	if info.Size() == s.offset {
		return nil, nil
	}
	if _, err := f.Seek(s.offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil, nil
	}
	s.offset += int64(end + 1)
	return splitLines(data[:end+1]), nil
}

func readCompressed(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var lines [][]byte
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := bytes.TrimSpace(sc.Bytes()); len(line) > 0 {
			lines = append(lines, slices.Clone(line))
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return lines, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for line := range bytes.SplitSeq(data, []byte{'\n'}) {
		if line = bytes.TrimSpace(line); len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}
