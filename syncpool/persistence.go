package syncpool

import (
	"database/sql"
	"fmt"

	"github.com/neotene/spacebuild/protoerr"
	"github.com/neotene/spacebuild/store"
	"github.com/neotene/spacebuild/world"
)

type bodyRow struct {
	id                                              world.Id
	owner                                           world.Id
	ownerValid                                      bool
	x, y, z                                         float64
	dirX, dirY, dirZ                                float64
	localSpeed, angularSpeed, rotatingSpeed         float64
	gravityCenter                                   world.Id
	gravityCenterValid                              bool
}

func scanBodyRow(rows *sql.Rows) (bodyRow, error) {
	var r bodyRow
	var owner, gravityCenter sql.NullInt64
	err := rows.Scan(
		&r.id, &owner, &r.x, &r.y, &r.z,
		&r.dirX, &r.dirY, &r.dirZ,
		&r.localSpeed, &r.angularSpeed, &r.rotatingSpeed,
		&gravityCenter,
	)
	if err != nil {
		return r, err
	}
	if owner.Valid {
		r.owner = world.Id(owner.Int64)
		r.ownerValid = true
	} else {
		r.owner = world.IdNone
	}
	if gravityCenter.Valid {
		r.gravityCenter = world.Id(gravityCenter.Int64)
		r.gravityCenterValid = true
	} else {
		r.gravityCenter = world.IdNone
	}
	return r, nil
}

func (p *Pool) fetchBodyRow(id world.Id) (bodyRow, error) {
	var found bodyRow
	var ok bool
	err := p.store.SelectWhereEqual(store.TableBody, "id", id, func(rows *sql.Rows) error {
		r, err := scanBodyRow(rows)
		if err != nil {
			return err
		}
		found = r
		ok = true
		return nil
	})
	if err != nil {
		return bodyRow{}, err
	}
	if !ok {
		return bodyRow{}, fmt.Errorf("body %d: %w", id, protoerr.ErrBodyNotFound)
	}
	return found, nil
}

// loadBodyRow assembles a full CelestialBody by probing each subtable
// for a body_id match, then loading the Body row itself.
func (p *Pool) loadBodyRow(id world.Id) (*world.CelestialBody, error) {
	entity, err := p.loadEntityVariant(id)
	if err != nil {
		return nil, err
	}
	return p.loadBodyRowWithEntity(id, entity)
}

func (p *Pool) loadBodyRowWithEntity(id world.Id, entity world.EntityKind) (*world.CelestialBody, error) {
	row, err := p.fetchBodyRow(id)
	if err != nil {
		return nil, err
	}
	return &world.CelestialBody{
		Id:             row.id,
		Owner:          row.owner,
		Coords:         world.Vector3{X: row.x, Y: row.y, Z: row.z},
		LocalDirection: world.Vector3{X: row.dirX, Y: row.dirY, Z: row.dirZ},
		LocalSpeed:     row.localSpeed,
		AngularSpeed:   row.angularSpeed,
		RotatingSpeed:  row.rotatingSpeed,
		GravityCenter:  row.gravityCenter,
		Entity:         entity,
	}, nil
}

// loadEntityVariant probes Player, Asteroid, Star, Planet, Moon in turn
// for a body_id match, returning the first hit's entity variant.
func (p *Pool) loadEntityVariant(id world.Id) (world.EntityKind, error) {
	if nickname, playerID, ok, err := p.probePlayerSubtable(id); err != nil {
		return nil, err
	} else if ok {
		return &world.Player{PlayerId: playerID, Nickname: nickname}, nil
	}

	for _, probe := range []struct {
		table string
		make  func() world.EntityKind
	}{
		{store.TableAsteroid, func() world.EntityKind { return world.Asteroid{} }},
		{store.TableStar, func() world.EntityKind { return world.Star{} }},
		{store.TablePlanet, func() world.EntityKind { return world.Planet{} }},
		{store.TableMoon, func() world.EntityKind { return world.Moon{} }},
	} {
		found := false
		err := p.store.SelectWhereEqual(probe.table, "body_id", id, func(rows *sql.Rows) error {
			found = true
			return nil
		})
		if err != nil {
			return nil, err
		}
		if found {
			return probe.make(), nil
		}
	}

	return nil, fmt.Errorf("body %d: %w", id, protoerr.ErrBodyNotFound)
}

func (p *Pool) probePlayerSubtable(bodyID world.Id) (nickname string, playerID world.Id, found bool, err error) {
	selectErr := p.store.SelectWhereEqual(store.TablePlayer, "body_id", bodyID, func(rows *sql.Rows) error {
		var id, playerBodyID world.Id
		var scannedNickname string
		if err := rows.Scan(&id, &scannedNickname, &playerBodyID); err != nil {
			return err
		}
		playerID = id
		nickname = scannedNickname
		found = true
		return nil
	})
	return nickname, playerID, found, selectErr
}

// loadPlayerRowByNickname selects Player WHERE nickname = ? and returns
// the linked body id and the player's own id.
func (p *Pool) loadPlayerRowByNickname(nickname string) (bodyID, playerID world.Id, err error) {
	found := false
	selectErr := p.store.SelectWhereEqual(store.TablePlayer, "nickname", nickname, func(rows *sql.Rows) error {
		var id, linkedBodyID world.Id
		var scannedNickname string
		if err := rows.Scan(&id, &scannedNickname, &linkedBodyID); err != nil {
			return err
		}
		playerID = id
		bodyID = linkedBodyID
		found = true
		return nil
	})
	if selectErr != nil {
		return 0, 0, selectErr
	}
	if !found {
		return 0, 0, fmt.Errorf("nickname %q: %w", nickname, protoerr.ErrPlayerByNicknameNotFound)
	}
	return bodyID, playerID, nil
}

// loadChildrenOf selects every Body row whose gravity_center equals
// parentID and assembles its full CelestialBody.
func (p *Pool) loadChildrenOf(parentID world.Id) ([]*world.CelestialBody, error) {
	var ids []world.Id
	err := p.store.SelectWhereEqual(store.TableBody, "gravity_center", parentID, func(rows *sql.Rows) error {
		r, err := scanBodyRow(rows)
		if err != nil {
			return err
		}
		ids = append(ids, r.id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	children := make([]*world.CelestialBody, 0, len(ids))
	for _, id := range ids {
		if cached, ok := p.cache[id]; ok {
			children = append(children, cached)
			continue
		}
		b, err := p.GetBody(id)
		if err != nil {
			return nil, err
		}
		children = append(children, b)
	}
	return children, nil
}

func (p *Pool) saveBodies() error {
	columns := []string{
		"id", "owner", "coordinate_x", "coordinate_y", "coordinate_z",
		"local_direction_x", "local_direction_y", "local_direction_z",
		"local_speed", "angular_speed", "rotating_speed", "gravity_center",
	}
	rows := make([]store.Row, 0, len(p.cache))
	for _, b := range p.cache {
		var owner, gravityCenter any
		if b.Owner != world.IdNone {
			owner = b.Owner
		}
		if b.GravityCenter != world.IdNone {
			gravityCenter = b.GravityCenter
		}
		rows = append(rows, store.Row{Values: []any{
			b.Id, owner, b.Coords.X, b.Coords.Y, b.Coords.Z,
			b.LocalDirection.X, b.LocalDirection.Y, b.LocalDirection.Z,
			b.LocalSpeed, b.AngularSpeed, b.RotatingSpeed, gravityCenter,
		}})
	}
	return p.store.UpsertRows(store.TableBody, columns, "id",
		[]string{"coordinate_x", "coordinate_y", "coordinate_z"}, rows)
}

func (p *Pool) savePlayers() error {
	columns := []string{"id", "nickname", "body_id"}
	var rows []store.Row
	for _, b := range p.cache {
		player, ok := b.AsPlayer()
		if !ok {
			continue
		}
		rows = append(rows, store.Row{Values: []any{player.PlayerId, player.Nickname, b.Id}})
	}
	return p.store.UpsertRows(store.TablePlayer, columns, "id", []string{"nickname", "body_id"}, rows)
}

func (p *Pool) saveSubtables() error {
	buckets := map[string][]store.Row{
		store.TableStar:     nil,
		store.TablePlanet:   nil,
		store.TableMoon:     nil,
		store.TableAsteroid: nil,
	}
	for _, b := range p.cache {
		var table string
		switch b.Entity.(type) {
		case world.Star:
			table = store.TableStar
		case world.Planet:
			table = store.TablePlanet
		case world.Moon:
			table = store.TableMoon
		case world.Asteroid:
			table = store.TableAsteroid
		default:
			continue
		}
		buckets[table] = append(buckets[table], store.Row{Values: []any{nil, b.Id}})
	}

	for table, rows := range buckets {
		if len(rows) == 0 {
			continue
		}
		// body_id is unique; subtable's own id is autoincrement and
		// write-once, so only body_id is ever the conflict/update target.
		if err := p.store.UpsertRows(table, []string{"id", "body_id"}, "body_id", []string{"body_id"}, rows); err != nil {
			return err
		}
	}
	return nil
}
