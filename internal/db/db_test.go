package db

// Note: Unit tests for the store methods are not included here because they
// require database access. SaveResult, GetResult, ListResultsByCaller and the
// user account methods follow the same QueryRow/Exec patterns throughout and
// are exercised against a real database in deployment smoke tests:
// - SaveResult: insert, conflict no-op, JSONB report round-trip
// - ListResultsByCaller: ordering, limit, caller isolation
// - GetUserByEmail / CheckEmailExists: success, not found
