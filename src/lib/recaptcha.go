package lib

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type recaptchaVerifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

var recaptchaClient *resty.Client

func getRecaptchaClient() *resty.Client {
	if recaptchaClient != nil {
		return recaptchaClient
	}
	recaptchaClient = resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return recaptchaClient
}

// VerifyCaptcha checks a client token against Google siteverify. Only called
// on production logins; local environments skip the gate entirely.
func VerifyCaptcha(token string, remoteIP string) error {
	secret := os.Getenv("RECAPTCHA_SECRET")
	if secret == "" {
		return errors.New("reCAPTCHA secret is not configured")
	}
	var result recaptchaVerifyResponse
	res, err := getRecaptchaClient().R().
		SetFormData(map[string]string{
			"secret":   secret,
			"response": token,
			"remoteip": remoteIP,
		}).
		SetResult(&result).
		Post(recaptchaVerifyURL)
	if err != nil {
		log.Printf("Error verifying captcha token: %s\n", err.Error())
		return err
	}
	if res.IsError() {
		return errors.New("captcha verification request failed")
	}
	if !result.Success {
		log.Printf("Captcha verification rejected: %v\n", result.ErrorCodes)
		return errors.New("captcha verification failed")
	}
	return nil
}
