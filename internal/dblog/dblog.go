// Package dblog is a thin structured-logging wrapper around logrus
// (WithFields at statement boundaries, never inside a hot tree-walk loop).
// It only ever logs at statement granularity — one line per CREATE TABLE /
// INSERT / SELECT — because logging inside Insert's per-entry tree rebuild
// would dominate the actual work.
package dblog

import (
	"github.com/dustin/go-humanize"
	"github.com/jchris/prolly-trees/cid"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Statement logs one completed DDL/DML/query statement: its kind, the
// table it touched, and the database root it produced or read from.
func Statement(kind, table string, root cid.CID) {
	log.WithFields(logrus.Fields{
		"stmt":  kind,
		"table": table,
		"root":  root.String(),
	}).Debug("statement complete")
}

// BlockWrite logs a batch of newly persisted blocks, sizing the total in
// human-readable form the way a store's write-amplification log line
// would.
func BlockWrite(table string, count int, totalBytes int) {
	log.WithFields(logrus.Fields{
		"table":  table,
		"blocks": count,
		"bytes":  humanize.Bytes(uint64(totalBytes)),
	}).Debug("wrote blocks")
}

// SetLevel adjusts the package logger's verbosity; callers embedding this
// module in a CLI or service typically wire this to a -v flag.
func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}
