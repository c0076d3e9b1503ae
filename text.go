package main

// Interface copy that is not part of the portfolio content file.
type uiText struct {
	DarkModeLabel  string
	LightModeLabel string
	SuccessMessage string
	DeliveryError  string
}

var UIText = uiText{
	DarkModeLabel:  "Dark Mode",
	LightModeLabel: "Light Mode",
	SuccessMessage: "Thank you! Your message has been sent.",
	DeliveryError:  "Sorry, there was an error sending your message. Please try again later.",
}
