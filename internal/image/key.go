package image

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const tokenLength = 11

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// AllowedType reports whether contentType is on the upload allow-list.
func AllowedType(contentType string) bool {
	_, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}

// ObjectKey builds [folder/]<unix-ms>-<token>[.<ext>].
// An empty extension produces a key without a trailing dot.
func ObjectKey(now time.Time, token, folder, ext string) string {
	name := fmt.Sprintf("%d-%s", now.UnixMilli(), token)
	if ext != "" {
		name += "." + ext
	}
	if folder = strings.Trim(strings.TrimSpace(folder), "/"); folder != "" {
		name = folder + "/" + name
	}
	return name
}

// Extension returns the text after the last dot of name, or "" when there is none.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

func randomToken() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	token := strconv.FormatUint(binary.BigEndian.Uint64(b[:]), 36)
	if len(token) > tokenLength {
		return token[len(token)-tokenLength:], nil
	}
	return strings.Repeat("0", tokenLength-len(token)) + token, nil
}

// KeyFromURL recovers an object key from a public URL by locating the bucket
// segment and taking everything after it. Without that segment only the last
// path segment is returned, which is wrong for keys nested in a folder.
func KeyFromURL(rawURL, bucket string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrUnparseableURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnparseableURL, err)
	}

	segments := strings.Split(u.Path, "/")
	key := segments[len(segments)-1]
	for i, seg := range segments {
		if seg == bucket {
			key = strings.Join(segments[i+1:], "/")
			break
		}
	}

	if key == "" {
		return "", ErrUnparseableURL
	}
	return key, nil
}
