package routes

import "github.com/gin-gonic/gin"

// Mount registers handlers on group for the route named key. The gin path
// uses the same :name syntax as the table. It panics on an unknown key so a
// typo fails at startup rather than at request time.
func Mount(group gin.IRoutes, key string, handlers ...gin.HandlerFunc) Route {
	r, ok := table[key]
	if !ok {
		panic("routes: mount of unknown key " + key)
	}
	group.Handle(r.Method, r.Path, handlers...)
	return r
}
