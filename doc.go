// Package dynabase provides Service, a generic data-access facade over any
// entity with a primary key.
//
// A Service validates its arguments, wraps every mutating operation in a
// transaction and offers page-based selection with or without a total count.
// Row access is delegated to a repository.Accessor and paging to a
// pager.Pager, so both can be replaced.
//
//	type User struct {
//		bun.BaseModel `bun:"table:users"`
//		types.PageParam
//
//		ID   int64  `bun:",pk,autoincrement"`
//		Name string `bun:"name"`
//	}
//
//	func (u *User) GetPk() int64 { return u.ID }
//
//	users := dynabase.NewService[User, int64](db)
//	page, err := users.SelectPageAndCountByExample(ctx, ex, 2, 10)
package dynabase
