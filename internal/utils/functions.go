package utils

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			return outputPath
		}
		index++
	}
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// FileNameFromURL returns the last path segment of a URL, or "" if there is none.
func FileNameFromURL(link string) string {
	parsedURL, err := url.Parse(link)
	if err != nil {
		return ""
	}
	name := path.Base(parsedURL.Path)
	if name == "/" || name == "." {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}

// ResolveSavePath turns the user's destination into the final file path.
// An empty destination, an existing directory or a path ending in a
// separator receives fileName inside it.
func ResolveSavePath(dest, fileName string) string {
	if fileName == "" {
		fileName = "download"
	}
	if dest == "" {
		dest = "."
	}
	if strings.HasSuffix(dest, string(os.PathSeparator)) || strings.HasSuffix(dest, "/") {
		return filepath.Join(dest, fileName)
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return filepath.Join(dest, fileName)
	}
	return dest
}

// AutoChunkSize mirrors the default split: a tenth of the file, capped at 10MB.
func AutoChunkSize(size int64) int64 {
	return max(min(size/AutoChunkDivisor, MaxAutoChunkSize), 1)
}
