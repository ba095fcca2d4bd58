package utils

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
)

func CreateJWTToken(userID uint64, userName string, jwtSecretKey string) (string, error) {
	claims := jwt.MapClaims{}
	claims["authorized"] = true
	claims["userID"] = userID
	claims["name"] = userName
	claims["exp"] = time.Now().Add(time.Hour * 24).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(jwtSecretKey))
}

// ExtractTokenUser reads the claims the JWT middleware stored under "user".
func ExtractTokenUser(c echo.Context) (userID uint64, userName string, ok bool) {
	user, ok := c.Get("user").(*jwt.Token)
	if !ok || !user.Valid {
		return 0, "", false
	}

	claims, ok := user.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", false
	}

	id, ok := claims["userID"].(float64)
	if !ok {
		return 0, "", false
	}
	userName, _ = claims["name"].(string)

	return uint64(id), userName, true
}
