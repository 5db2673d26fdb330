package cdp

import (
	"encoding/base64"
	"strings"
)

// InlineDocumentHTML is the editable page the host navigates to once the
// engine is ready.
const InlineDocumentHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>uiwatch</title>
</head>
<body contenteditable="true">
    Lorem ipsum dolor sit amet, consectetur adipiscing elit.
    Quisque volutpat velit dui, in blandit odio gravida sit amet. Aenean interdum,
    sapien sed rutrum imperdiet, leo nisi bibendum felis, et dictum lorem est quis justo.
    Donec a iaculis est. Vivamus vel est sit amet dui pulvinar fermentum. Fusce semper augue leo,
    id ultricies ante blandit quis. Sed mollis ullamcorper quam vel pharetra. Sed sed eleifend ex,
    eu auctor eros. Mauris dapibus, purus eu venenatis pulvinar, turpis turpis congue erat, ut accumsan dui dolor id erat.
    Pellentesque non tristique nulla. Vestibulum eget pulvinar ex, non vulputate ante. Nam sodales tristique molestie.
    Vivamus ac sapien porttitor, dapibus dui quis, mollis turpis. Curabitur pulvinar vulputate orci. Duis auctor enim a eros egestas,
    in ultricies turpis tristique. Praesent congue efficitur nisl, sed laoreet dolor laoreet nec.
</body>
</html>`

const inlineDocumentPrefix = "data:text/html;charset=utf-8;base64,"

// DocumentURL encodes html as a data: URL.
func DocumentURL(html string) string {
	return inlineDocumentPrefix + base64.StdEncoding.EncodeToString([]byte(html))
}

// IsInlineDocumentURL reports whether url carries a document produced by
// DocumentURL.
func IsInlineDocumentURL(url string) bool {
	return strings.HasPrefix(url, inlineDocumentPrefix)
}
