package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/Dend04/Pagina-web-Tienda/internal/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterItemRules agrega al validador de gin las reglas que no se
// expresan con tags: cada item necesita nombre o producto_id.
func RegisterItemRules() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("el motor de validación de gin no es validator/v10")
	}
	// los detalles usan el nombre JSON del campo
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterStructValidation(itemIdentificado, dto.ItemDTO{})
	return nil
}

func itemIdentificado(sl validator.StructLevel) {
	item := sl.Current().Interface().(dto.ItemDTO)
	if item.Nombre == "" && item.ProductoID <= 0 {
		sl.ReportError(item.Nombre, "nombre", "Nombre", "nombre_o_producto", "")
	}
}

// Details convierte los errores del validador en campo -> regla.
// Devuelve nil si err no es un error de validación (JSON mal formado, etc).
func Details(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	out := make(map[string]string, len(validationErrors))
	for _, ve := range validationErrors {
		out[ve.Field()] = ve.Tag()
	}
	return out
}
