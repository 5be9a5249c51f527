package entity

type Sport struct {
	BaseSimple
	Name string `db:"name"`
}
