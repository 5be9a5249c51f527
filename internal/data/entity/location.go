package entity

type Location struct {
	Base
	Name    string `db:"name"`
	Address string `db:"address"`
}
