package approval

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/internal/cordoncrypto"
	"github.com/mrz1836/cordon/internal/cordonlog"
	"github.com/mrz1836/cordon/internal/fileutil"
)

const ledgerFilePermissions = 0o600

// ledgerFile is the on-disk envelope: the record list plus an HMAC tag
// over the JSON encoding of the record list.
type ledgerFile struct {
	Records []Record `json:"records"`
	HMAC    string   `json:"hmac"`
}

// ErrLedgerTampered is returned when a ledger file exists but its HMAC
// tag doesn't match its contents. The ledger holds irreplaceable user
// history, so a tampered file is surfaced as an error rather than
// silently discarded or reset.
var ErrLedgerTampered = fmt.Errorf("approval ledger integrity check failed: possible tampering")

// Ledger is the on-disk store of ApprovalRecords, keyed by
// GenerateApprovalID. Records are upserted, never deleted; every
// mutation is serialized through mu and persisted atomically.
type Ledger struct {
	mu      sync.Mutex
	path    string
	hmacKey []byte
	logger  *cordonlog.Logger
}

// NewLedger returns a Ledger backed by the file at path, integrity-sealed
// with hmacKey (a device- or session-derived secret supplied by the
// caller; the ledger package has no opinion on where it comes from).
func NewLedger(path string, hmacKey []byte) *Ledger {
	return &Ledger{path: path, hmacKey: hmacKey, logger: cordonlog.Null()}
}

// SetLogger attaches logger for ledger integrity and mutation events.
func (l *Ledger) SetLogger(logger *cordonlog.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = logger
}

// Upsert saves record, keyed by record.ID: a matching existing record is
// replaced in place, preserving its position; otherwise record is
// appended. This is the only way records enter or change in the ledger —
// there is no delete.
func (l *Ledger) Upsert(record Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.read()
	if err != nil {
		return err
	}

	replaced := false
	for i := range file.Records {
		if file.Records[i].ID == record.ID {
			file.Records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		file.Records = append(file.Records, record)
	}

	if err := l.write(file); err != nil {
		return err
	}

	l.logger.Info("approval_record_upserted", slog.String("record_id", record.ID), slog.Bool("replaced", replaced))

	return nil
}

// Mutate loads the record for id (if any), applies fn, and upserts the
// result — the vehicle for revoke-lifecycle status transitions. fn
// receives (nil, false) when id is not yet present, so callers can
// create-or-update uniformly.
func (l *Ledger) Mutate(id string, fn func(rec *Record, found bool) Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.read()
	if err != nil {
		return err
	}

	for i := range file.Records {
		if file.Records[i].ID == id {
			file.Records[i] = fn(&file.Records[i], true)
			if err := l.write(file); err != nil {
				return err
			}
			l.logger.Debug("approval_record_mutated", slog.String("record_id", id))
			return nil
		}
	}

	updated := fn(nil, false)
	file.Records = append(file.Records, updated)
	if err := l.write(file); err != nil {
		return err
	}
	l.logger.Debug("approval_record_mutated", slog.String("record_id", id), slog.Bool("created", true))
	return nil
}

// Get returns the record for id, if present.
func (l *Ledger) Get(id string) (Record, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.read()
	if err != nil {
		return Record{}, false, err
	}
	for _, rec := range file.Records {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

// ListByOwnerChain returns every record for (owner, chainId), owner
// compared case-insensitively.
func (l *Ledger) ListByOwnerChain(owner string, chainID chain.ID) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.read()
	if err != nil {
		return nil, err
	}

	var out []Record
	for _, rec := range file.Records {
		if rec.ChainID == chainID && strings.EqualFold(rec.Owner, owner) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// All returns every record in the ledger.
func (l *Ledger) All() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.read()
	if err != nil {
		return nil, err
	}
	return file.Records, nil
}

func (l *Ledger) read() (ledgerFile, error) {
	data, err := os.ReadFile(l.path) //nolint:gosec // G304: path is operator-configured, not user input
	if os.IsNotExist(err) {
		return ledgerFile{}, nil
	}
	if err != nil {
		return ledgerFile{}, fmt.Errorf("reading approval ledger: %w", err)
	}

	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return ledgerFile{}, fmt.Errorf("parsing approval ledger: %w", err)
	}

	if len(file.Records) == 0 && file.HMAC == "" {
		return ledgerFile{}, nil
	}

	body, err := json.Marshal(file.Records)
	if err != nil {
		return ledgerFile{}, fmt.Errorf("re-marshaling approval ledger for verification: %w", err)
	}
	tag, err := hex.DecodeString(file.HMAC)
	if err != nil || !cordoncrypto.VerifyHMAC(l.hmacKey, body, tag) {
		l.logger.Error("approval_ledger_tampered", slog.String("path", l.path))
		return ledgerFile{}, ErrLedgerTampered
	}

	return file, nil
}

func (l *Ledger) write(file ledgerFile) error {
	body, err := json.Marshal(file.Records)
	if err != nil {
		return fmt.Errorf("marshaling approval ledger records: %w", err)
	}
	file.HMAC = hex.EncodeToString(cordoncrypto.SealHMAC(l.hmacKey, body))

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling approval ledger: %w", err)
	}

	return fileutil.WriteAtomic(l.path, data, ledgerFilePermissions)
}
