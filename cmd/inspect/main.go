package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// Known collections: chat:, afk:, sudo:, auth:, blocked:. Values are
// JSON documents, so any prefix renders without schema knowledge.
func main() {
	dbPath := flag.String("db", "/tmp/guard", "Path to badger DB")
	prefix := flag.String("prefix", "chat:", "Key prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	header := fmt.Sprintf(" guard store %s, prefix %q ", *dbPath, *prefix)
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Fields"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				fields, err := renderValue(v)
				if err != nil {
					// A bad row is reported, never fatal
					fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
					return nil
				}
				table.Append([]string{string(item.Key()), fields})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Printf("%d rows\n", rows)
}

// renderValue flattens a JSON document into "k=v" pairs with stable
// ordering. Unix-second fields get a readable timestamp.
func renderValue(raw []byte) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(doc))
	for _, k := range keys {
		v := doc[k]
		if n, ok := v.(float64); ok && looksLikeTimestamp(k, n) {
			parts = append(parts, fmt.Sprintf("%s=%s", k, formatTimestamp(int64(n))))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " "), nil
}

func looksLikeTimestamp(key string, n float64) bool {
	if n <= 0 {
		return false
	}
	return strings.HasSuffix(key, "_at") || strings.HasSuffix(key, "_seen") ||
		strings.HasSuffix(key, "_failure")
}

func formatTimestamp(n int64) string {
	// Presence records store nanoseconds, the rest store seconds
	if n > 1e15 {
		return time.Unix(0, n).UTC().Format(time.RFC3339)
	}
	return time.Unix(n, 0).UTC().Format(time.RFC3339)
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}
