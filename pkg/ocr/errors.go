package ocr

import "errors"

// ErrModelNotReady indicates the model did not become ready within the
// load timeout. Callers map it to HTTP 503 so clients retry later.
var ErrModelNotReady = errors.New("ocr model not ready")
