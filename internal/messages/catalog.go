// Package messages renders the home-view error codes returned by the job
// server in the user's language.
package messages

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	CodeNoFileUploaded     = "101"
	CodeUnauthorizedAccess = "102"
)

const (
	keyNoFileUploaded     = "No file uploaded"
	keyUnauthorizedAccess = "Unauthorized access, open the home page before submitting a job"
	keyUnknown            = "Request could not be processed (code %s)"
	keyNoCode             = "Request could not be processed"
)

func init() {
	for _, e := range []struct {
		tag  language.Tag
		key  string
		text string
	}{
		{language.English, keyNoFileUploaded, keyNoFileUploaded},
		{language.English, keyUnauthorizedAccess, keyUnauthorizedAccess},
		{language.English, keyUnknown, keyUnknown},
		{language.English, keyNoCode, keyNoCode},
		{language.Indonesian, keyNoFileUploaded, "Tidak ada file yang diunggah"},
		{language.Indonesian, keyUnauthorizedAccess, "Akses tidak sah, buka halaman utama sebelum mengirim tugas"},
		{language.Indonesian, keyUnknown, "Permintaan tidak dapat diproses (kode %s)"},
		{language.Indonesian, keyNoCode, "Permintaan tidak dapat diproses"},
	} {
		_ = message.SetString(e.tag, e.key, e.text)
	}
}

// Locale normalizes a locale hint such as "id-ID", "id_ID.UTF-8" or "en-US"
// to one of the supported languages. Unknown values fall back to English.
func Locale(raw string) language.Tag {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "id") {
		return language.Indonesian
	}
	return language.English
}

// Text returns the message for an error code.
func Text(locale, code string) string {
	p := message.NewPrinter(Locale(locale))
	switch strings.TrimSpace(code) {
	case CodeNoFileUploaded:
		return p.Sprintf(keyNoFileUploaded)
	case CodeUnauthorizedAccess:
		return p.Sprintf(keyUnauthorizedAccess)
	case "":
		return p.Sprintf(keyNoCode)
	default:
		return p.Sprintf(keyUnknown, code)
	}
}

// Banner is Text in upper case, the way the home page headlines errors.
func Banner(locale, code string) string {
	return cases.Upper(Locale(locale)).String(Text(locale, code))
}
