package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/kaizencycle/mobius-browser-shell/internal/integrity"
	"github.com/kaizencycle/mobius-browser-shell/internal/ledger"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type printer struct {
	w      io.Writer
	format string
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) table(header []string, rows [][]string) {
	t := tablewriter.NewWriter(p.w)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetHeader(header)
	t.AppendBulk(rows)
	t.Render()
}

func (p *printer) summary(s *models.WalletSummary) error {
	if p.format == formatJSON {
		return p.json(map[string]any{
			"user_id":      s.UserID,
			"balance":      s.Balance.InexactFloat64(),
			"total_earned": s.TotalEarned.InexactFloat64(),
			"event_count":  s.EventCount,
			"last_updated": s.LastUpdated,
		})
	}
	last := "never"
	if s.LastUpdated != nil {
		last = humanize.Time(*s.LastUpdated)
	}
	p.table([]string{"USER", "BALANCE", "TOTAL EARNED", "EVENTS", "LAST UPDATED"}, [][]string{{
		s.UserID, s.Balance.StringFixed(2), s.TotalEarned.StringFixed(2), strconv.Itoa(s.EventCount), last,
	}})
	return nil
}

func (p *printer) entries(entries []*models.LedgerEntry) error {
	if p.format == formatJSON {
		return p.json(entries)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID.String(),
			e.Amount.StringFixed(2),
			string(e.Reason),
			e.Source,
			strconv.FormatFloat(e.GII, 'f', 4, 64),
			humanize.Time(e.CreatedAt),
		})
	}
	p.table([]string{"ID", "AMOUNT", "REASON", "SOURCE", "GII", "CREATED"}, rows)
	fmt.Fprintf(p.w, "(%d %s)\n", len(entries), pluralize(len(entries), "entry", "entries"))
	return nil
}

func (p *printer) receipt(r *models.Receipt) error {
	if p.format == formatJSON {
		return p.json(map[string]any{
			"entry":        r.Entry,
			"ledger_proof": r.LedgerProof,
			"new_balance":  r.NewBalance.InexactFloat64(),
		})
	}
	p.table([]string{"LEDGER PROOF", "USER", "AMOUNT", "REASON", "NEW BALANCE"}, [][]string{{
		r.LedgerProof, r.Entry.UserID, r.Entry.Amount.StringFixed(2), string(r.Entry.Reason), r.NewBalance.StringFixed(2),
	}})
	return nil
}

func (p *printer) stats(s *models.LedgerStats) error {
	if p.format == formatJSON {
		return p.json(map[string]any{
			"total_entries":     s.TotalEntries,
			"total_mic_minted":  s.TotalMinted.InexactFloat64(),
			"unique_users":      s.UniqueUsers,
			"entries_by_reason": s.EntriesByReason,
			"entries_by_source": s.EntriesBySource,
		})
	}
	p.table([]string{"TOTAL ENTRIES", "TOTAL MINTED", "UNIQUE USERS"}, [][]string{{
		humanize.Comma(int64(s.TotalEntries)), s.TotalMinted.StringFixed(2), humanize.Comma(int64(s.UniqueUsers)),
	}})
	p.table([]string{"REASON", "ENTRIES"}, countRows(s.EntriesByReason))
	p.table([]string{"SOURCE", "ENTRIES"}, countRows(s.EntriesBySource))
	return nil
}

func (p *printer) status(st *ledger.IntegrityStatus) error {
	if p.format == formatJSON {
		return p.json(map[string]any{
			"gii":                    st.GII,
			"gii_multiplier":         st.Multiplier,
			"band":                   st.Band,
			"circuit_breaker_active": st.CircuitBreakerActive,
			"message":                st.Message,
			"total_ledger_entries":   st.TotalEntries,
		})
	}
	breaker := "closed"
	if st.CircuitBreakerActive {
		breaker = "OPEN"
	}
	p.table([]string{"GII", "BAND", "MULTIPLIER", "CIRCUIT BREAKER", "ENTRIES"}, [][]string{{
		strconv.FormatFloat(st.GII, 'f', 4, 64), st.Band, strconv.FormatFloat(st.Multiplier, 'f', 2, 64), breaker, humanize.Comma(int64(st.TotalEntries)),
	}})
	if st.Message != "" {
		fmt.Fprintln(p.w, st.Message)
	}
	return nil
}

func (p *printer) snapshot(s *integrity.Snapshot) error {
	if p.format == formatJSON {
		return p.json(s)
	}
	p.table([]string{"ID", "GII", "BAND", "SOURCE", "OBSERVED"}, [][]string{{
		strconv.FormatInt(s.ID, 10), strconv.FormatFloat(s.Value, 'f', 4, 64), integrity.DefaultThresholds.Band(s.Value), s.Source, humanize.Time(s.ObservedAt),
	}})
	return nil
}

func (p *printer) user(u *models.User) error {
	if p.format == formatJSON {
		return p.json(map[string]any{"id": u.ID, "email": u.Email, "role": u.Role})
	}
	p.table([]string{"ID", "EMAIL", "ROLE"}, [][]string{{u.ID.String(), u.Email, u.Role}})
	return nil
}

func countRows(m map[string]int) [][]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, strconv.Itoa(m[k])})
	}
	return rows
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
