package reader

import (
	"bytes"
	"errors"
	"regexp"
	"strings"

	"github.com/yurifrl/ledgeru/pkg/models"
)

// Field names of the records ReadOFX produces.
const (
	OFXDate      = "date"
	OFXAmount    = "amount"
	OFXPayee     = "payee"
	OFXNarration = "narration"
	OFXID        = "id"
	OFXType      = "type"
	OFXCheck     = "check_number"
)

var (
	ofxTransaction = regexp.MustCompile(`(?s)<STMTTRN>(.*?)</STMTTRN>`)
	ofxTag         = regexp.MustCompile(`<([A-Z0-9.]+)>([^<\r\n]*)`)
)

// ReadOFX extracts the statement transactions of an OFX or QFX file. Both
// the SGML (OFX 1.x) and XML flavours are accepted since only the
// <STMTTRN> blocks are read. Posted dates become YYYY-MM-DD.
func ReadOFX(data []byte) ([]Record, error) {
	if !bytes.Contains(data, []byte("<OFX>")) {
		return nil, &models.DecodeError{Err: errors.New("not an ofx document")}
	}

	var records []Record
	for i, block := range ofxTransaction.FindAllSubmatch(data, -1) {
		tags := map[string]string{}
		for _, m := range ofxTag.FindAllSubmatch(block[1], -1) {
			tags[string(m[1])] = strings.TrimSpace(string(m[2]))
		}
		records = append(records, NewRecord(i,
			[]string{OFXDate, OFXAmount, OFXPayee, OFXNarration, OFXID, OFXType, OFXCheck},
			[]any{
				ofxDate(tags["DTPOSTED"]),
				tags["TRNAMT"],
				tags["NAME"],
				tags["MEMO"],
				tags["FITID"],
				tags["TRNTYPE"],
				tags["CHECKNUM"],
			}))
	}
	return records, nil
}

// ofxDate keeps the date part of YYYYMMDD[HHMMSS[.XXX]][[-3:BRT]].
func ofxDate(s string) string {
	if len(s) < 8 {
		return s
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}
