package engine

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tanq16/dl/internal/utils"
)

type fileInfo struct {
	Size           int64
	FileName       string
	RangeSupported bool
}

var filenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

// getFileInfo issues a HEAD request. Missing range support or length is not
// fatal: the caller falls back to a single sequential chunk.
func getFileInfo(ctx context.Context, link string, client *utils.DlHTTPClient) (fileInfo, error) {
	var info fileInfo
	if timeout := client.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return info, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return info, fmt.Errorf("error checking URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return info, errors.New("URL not found (404)")
	} else if resp.StatusCode >= 400 {
		return info, fmt.Errorf("server returned error: %d", resp.StatusCode)
	}

	if contentDisposition := resp.Header.Get("Content-Disposition"); contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if fn, ok := params["filename"]; ok && fn != "" {
				info.FileName = filenameRegex.ReplaceAllString(fn, "_")
			} else if fn, ok := params["filename*"]; ok && fn != "" {
				if strings.HasPrefix(fn, "UTF-8''") {
					unescaped, _ := url.PathUnescape(strings.TrimPrefix(fn, "UTF-8''"))
					info.FileName = filenameRegex.ReplaceAllString(unescaped, "_")
				}
			}
		}
	}

	contentLength := resp.Header.Get("Content-Length")
	if contentLength == "" {
		return info, utils.ErrUnknownSize
	}
	size, err := strconv.ParseInt(contentLength, 10, 64)
	if err != nil || size < 0 {
		return info, utils.ErrUnknownSize
	}
	info.Size = size
	if resp.Header.Get("Accept-Ranges") != "bytes" {
		return info, utils.ErrRangeRequestsNotSupported
	}
	info.RangeSupported = size > 0
	return info, nil
}
