// Emite tokens firmados con JWT_SECRET para probar el servicio en local.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Dend04/Pagina-web-Tienda/internal/config"
	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/Dend04/Pagina-web-Tienda/internal/service"
)

func main() {
	id := flag.Int64("id", 1, "id del usuario")
	rol := flag.String("rol", model.RolCliente, "rol: cliente o comercial")
	nombre := flag.String("nombre", "", "nombre de usuario")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	token, err := service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL).IssueToken(*id, *rol, *nombre)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
