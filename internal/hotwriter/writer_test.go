package hotwriter

// Upsert, GetByID, and SearchByCountryAndTimeRange all require a real
// pgxpool.Pool and are exercised by integration tests against a live
// Postgres instance, not here.
