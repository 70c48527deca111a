package store

// Table and column names shared by the store adapter and the sync pool.
const (
	TableBody     = "Body"
	TablePlayer   = "Player"
	TableStar     = "Star"
	TablePlanet   = "Planet"
	TableMoon     = "Moon"
	TableAsteroid = "Asteroid"
)

var createTableStatements = []string{
	`CREATE TABLE IF NOT EXISTS Body (
		id INTEGER PRIMARY KEY,
		owner INTEGER,
		coordinate_x REAL NOT NULL,
		coordinate_y REAL NOT NULL,
		coordinate_z REAL NOT NULL,
		local_direction_x REAL NOT NULL DEFAULT 0,
		local_direction_y REAL NOT NULL DEFAULT 0,
		local_direction_z REAL NOT NULL DEFAULT 0,
		local_speed REAL NOT NULL DEFAULT 0,
		angular_speed REAL NOT NULL DEFAULT 0,
		rotating_speed REAL NOT NULL DEFAULT 0,
		gravity_center INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS Player (
		id INTEGER PRIMARY KEY,
		nickname TEXT NOT NULL,
		body_id INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Star (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		body_id INTEGER NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS Planet (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		body_id INTEGER NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS Moon (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		body_id INTEGER NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS Asteroid (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		body_id INTEGER NOT NULL UNIQUE
	)`,
}

var createIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_body_id ON Body(id)`,
	`CREATE INDEX IF NOT EXISTS idx_body_owner ON Body(owner)`,
	`CREATE INDEX IF NOT EXISTS idx_body_gravity_center ON Body(gravity_center)`,
	`CREATE INDEX IF NOT EXISTS idx_player_id ON Player(id)`,
	`CREATE INDEX IF NOT EXISTS idx_player_body_id ON Player(body_id)`,
	`CREATE INDEX IF NOT EXISTS idx_player_nickname ON Player(nickname)`,
	`CREATE INDEX IF NOT EXISTS idx_star_id ON Star(id)`,
	`CREATE INDEX IF NOT EXISTS idx_star_body_id ON Star(body_id)`,
	`CREATE INDEX IF NOT EXISTS idx_planet_id ON Planet(id)`,
	`CREATE INDEX IF NOT EXISTS idx_planet_body_id ON Planet(body_id)`,
	`CREATE INDEX IF NOT EXISTS idx_moon_id ON Moon(id)`,
	`CREATE INDEX IF NOT EXISTS idx_moon_body_id ON Moon(body_id)`,
	`CREATE INDEX IF NOT EXISTS idx_asteroid_id ON Asteroid(id)`,
	`CREATE INDEX IF NOT EXISTS idx_asteroid_body_id ON Asteroid(body_id)`,
}

// InitializeSchema creates every table and index the sync pool depends
// on, idempotently.
func (db *DB) InitializeSchema() error {
	for _, stmt := range createTableStatements {
		if err := db.CreateTable(stmt); err != nil {
			return err
		}
	}
	for _, stmt := range createIndexStatements {
		if err := db.CreateIndex(stmt); err != nil {
			return err
		}
	}
	return nil
}
