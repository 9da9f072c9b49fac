package outbox

const recordSubmittedSchema = `{
  "type": "object",
  "title": "ShiftRecordSubmitted",
  "properties": {
    "record_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "site": {"type": "string"},
    "shift_date": {"type": "string", "format": "date"},
    "shift_period": {"type": "string"},
    "shift_id": {"type": "string"},
    "user_id": {"type": "string"},
    "payload": {"type": "object"},
    "submitted_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "tenant_id", "site", "shift_date", "shift_period", "shift_id", "user_id", "payload", "submitted_at"],
  "additionalProperties": false
}`

const payloadReplacedSchema = `{
  "type": "object",
  "title": "ShiftPayloadReplaced",
  "properties": {
    "record_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "site": {"type": "string"},
    "shift_date": {"type": "string", "format": "date"},
    "payload": {"type": "object"},
    "replaced_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "tenant_id", "site", "shift_date", "payload", "replaced_at"],
  "additionalProperties": false
}`

const dayValidatedSchema = `{
  "type": "object",
  "title": "ShiftDayValidated",
  "properties": {
    "tenant_id": {"type": "string"},
    "site": {"type": "string"},
    "shift_date": {"type": "string", "format": "date"},
    "record_count": {"type": "integer"},
    "validated_at": {"type": "string", "format": "date-time"}
  },
  "required": ["tenant_id", "site", "shift_date", "record_count", "validated_at"],
  "additionalProperties": false
}`

const recordDeletedSchema = `{
  "type": "object",
  "title": "ShiftRecordDeleted",
  "properties": {
    "record_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "site": {"type": "string"},
    "shift_date": {"type": "string", "format": "date"},
    "deleted_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "tenant_id", "site", "shift_date", "deleted_at"],
  "additionalProperties": false
}`
