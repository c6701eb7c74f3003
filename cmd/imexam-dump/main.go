package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/cdeil/imexam/internal/output"
)

// imexam-dump replays event logs written with `imexam -record` and
// prints one line per recorded viewer message, so a session can be
// inspected after the fact.
func main() {
	var (
		path  = flag.String("path", "eventlog", "Event log file or directory of .bin logs")
		limit = flag.Int("limit", 0, "Maximum records to print per file (0: all)")
	)
	flag.Parse()

	files, err := listLogs(*path)
	if err != nil {
		log.Fatalf("imexam-dump: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("imexam-dump: no event logs under %s", *path)
	}

	for _, file := range files {
		if err := dumpFile(file, *limit); err != nil {
			log.Printf("%s: %v", file, err)
		}
	}
}

func listLogs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bin") {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func dumpFile(path string, limit int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := output.ReadEventLog(f)
	if err != nil && len(records) == 0 {
		return err
	}
	if err != nil {
		log.Printf("%s: truncated log: %v", path, err)
	}

	fmt.Printf("%s: %d records\n", path, len(records))
	for i, record := range records {
		if limit > 0 && i >= limit {
			fmt.Printf("  ... %d more\n", len(records)-limit)
			break
		}
		fmt.Printf("  %s  %s\n", record.Time.Format("15:04:05.000"), describe(record.Payload))
	}
	return nil
}

// describe renders one payload as a short single line. Payloads are
// CBOR on the ds9 transport and JSON on the web transport; anything
// else is shown as a byte count.
func describe(payload []byte) string {
	var decoded map[string]any
	if err := cbor.Unmarshal(payload, &decoded); err != nil {
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return fmt.Sprintf("opaque payload (%d bytes)", len(payload))
		}
	}

	keys := make([]string, 0, len(decoded))
	for key := range decoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%s", key, describeValue(decoded[key]))
	}
	return sb.String()
}

func describeValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(v))
	case []any:
		return fmt.Sprintf("<%d items>", len(v))
	case map[string]any:
		return fmt.Sprintf("<%d fields>", len(v))
	case cbor.Tag:
		return fmt.Sprintf("<tag %d>", v.Number)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
