package logger

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldPool      = "pool"
	FieldPoolID    = "pool_id"
	FieldWorker    = "worker"
	FieldOperation = "op"
	FieldMode      = "mode"
	FieldError     = "error"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Debug("dispatch", logger.Fields("op", "sum", "mode", "parallel"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}
