package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/journalq/internal/domain"
)

func renderHostsTable(w io.Writer, hosts domain.Hosts) error {
	table := tablewriter.NewWriter(w)
	table.Header("Host", "Units", "Count")
	for _, h := range hosts.All() {
		row := []string{h.Hostname, strings.Join(h.Units, ", "), strconv.Itoa(len(h.Units))}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
