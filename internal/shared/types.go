package shared

// Asynq task types
const (
	TypeExpireRedemption = "redemption:expire"
	TypeSweepExpired     = "redemption:sweep_expired"
)

// Asynq queues
const (
	QueueRedemption = "redemption"
	QueueDefault    = "default"
)

// Gin context keys set by the auth middleware
const (
	ContextUserID     = "userID"
	ContextRole       = "role"
	ContextBusinessID = "business_id"
	ContextRequestID  = "request_id"
)

// Roles carried in the access token
const (
	RoleSubscriber = "subscriber"
	RoleBusiness   = "business"
	RoleAdmin      = "admin"
)
