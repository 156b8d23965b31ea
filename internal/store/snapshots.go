package store

import "fmt"

// ReplaceContacts swaps the cached contact snapshot for an administration.
func (s *Store) ReplaceContacts(adminID string, contacts []Contact) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM contacts WHERE administration_id = ?`, adminID); err != nil {
		return fmt.Errorf("clear contacts: %w", err)
	}
	for _, c := range contacts {
		_, err := tx.Exec(
			`INSERT INTO contacts (administration_id, id, name) VALUES (?, ?, ?)`,
			adminID, c.ID, c.Name,
		)
		if err != nil {
			return fmt.Errorf("insert contact %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// ListContacts returns the cached contacts, ordered by name.
func (s *Store) ListContacts(adminID string) ([]Contact, error) {
	rows, err := s.db.Query(
		`SELECT id, name FROM contacts WHERE administration_id = ? ORDER BY name, id`, adminID,
	)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ReplaceProjects swaps the cached project snapshot for an administration.
func (s *Store) ReplaceProjects(adminID string, projects []Project) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM projects WHERE administration_id = ?`, adminID); err != nil {
		return fmt.Errorf("clear projects: %w", err)
	}
	for _, p := range projects {
		_, err := tx.Exec(
			`INSERT INTO projects (administration_id, id, name, state) VALUES (?, ?, ?, ?)`,
			adminID, p.ID, p.Name, p.State,
		)
		if err != nil {
			return fmt.Errorf("insert project %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// ListProjects returns the cached projects, ordered by name.
func (s *Store) ListProjects(adminID string) ([]Project, error) {
	rows, err := s.db.Query(
		`SELECT id, name, state FROM projects WHERE administration_id = ? ORDER BY name, id`, adminID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.State); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
